// internal/clients/catalog_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"moviecatalog/internal/catalog"
)

// CatalogClient talks to a movie catalog over HTTP.
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCatalogClient(baseURL string) *CatalogClient {
	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient returns a copy of the client that sends requests through hc.
func (c *CatalogClient) WithHTTPClient(hc *http.Client) *CatalogClient {
	cp := *c
	cp.httpClient = hc
	return &cp
}

// AddMovie creates a movie. Field violations come back as *catalog.ValidationError.
func (c *CatalogClient) AddMovie(ctx context.Context, movie catalog.Movie) (catalog.Movie, error) {
	body, err := json.Marshal(movie)
	if err != nil {
		return catalog.Movie{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/movies", bytes.NewBuffer(body))
	if err != nil {
		return catalog.Movie{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return catalog.Movie{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusBadRequest:
		var fields map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
			return catalog.Movie{}, fmt.Errorf("decode validation response: %w", err)
		}
		return catalog.Movie{}, &catalog.ValidationError{Fields: fields}
	default:
		return catalog.Movie{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var created catalog.Movie
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return catalog.Movie{}, err
	}
	return created, nil
}

// GetMovie fetches a movie; the bool is false when the catalog answers 404.
func (c *CatalogClient) GetMovie(ctx context.Context, id int64) (catalog.Movie, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/movies/%d", c.baseURL, id), nil)
	if err != nil {
		return catalog.Movie{}, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return catalog.Movie{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return catalog.Movie{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return catalog.Movie{}, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var movie catalog.Movie
	if err := json.NewDecoder(resp.Body).Decode(&movie); err != nil {
		return catalog.Movie{}, false, err
	}
	return movie, true, nil
}

func (c *CatalogClient) ListMovies(ctx context.Context) ([]catalog.Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/movies", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var movies []catalog.Movie
	if err := json.NewDecoder(resp.Body).Decode(&movies); err != nil {
		return nil, err
	}
	return movies, nil
}
