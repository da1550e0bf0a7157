// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Movie is a single catalog entry. The ID is assigned by the store.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title" validate:"notblank"`
	Description string  `json:"description" validate:"min=10,max=1000"`
	ReleaseYear int     `json:"releaseYear" validate:"releaseyear"`
	Genre       string  `json:"genre" validate:"notblank"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=10"`
}

// MovieInput is the create payload accepted at the HTTP boundary.
// Any id sent by the client is dropped during decoding.
type MovieInput struct {
	Title       string   `json:"title" validate:"notblank"`
	Description string   `json:"description" validate:"min=10,max=1000"`
	ReleaseYear *int     `json:"releaseYear" validate:"required,releaseyear"`
	Genre       string   `json:"genre" validate:"notblank"`
	Rating      *float64 `json:"rating" validate:"required,gte=0,lte=10"`
}

// Movie converts a validated input into a Movie without an ID.
func (in MovieInput) Movie() Movie {
	m := Movie{
		Title:       in.Title,
		Description: in.Description,
		Genre:       in.Genre,
	}
	if in.ReleaseYear != nil {
		m.ReleaseYear = *in.ReleaseYear
	}
	if in.Rating != nil {
		m.Rating = *in.Rating
	}
	return m
}

// Event types emitted by the catalog.
const (
	EventMovieAdded = "MovieAdded"
)

// Event represents a domain event related to the catalog.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	MovieID    int64       `json:"movie_id"`
	Data       interface{} `json:"data"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// MovieAddedEvent is published when a new movie enters the catalog.
type MovieAddedEvent struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseYear int     `json:"release_year"`
	Genre       string  `json:"genre"`
	Rating      float64 `json:"rating"`
}

func newMovieAddedEvent(m Movie) Event {
	return Event{
		ID:      uuid.New(),
		Type:    EventMovieAdded,
		MovieID: m.ID,
		Data: MovieAddedEvent{
			ID:          m.ID,
			Title:       m.Title,
			ReleaseYear: m.ReleaseYear,
			Genre:       m.Genre,
			Rating:      m.Rating,
		},
		OccurredAt: time.Now().UTC(),
	}
}
