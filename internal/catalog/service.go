// internal/catalog/service.go
package catalog

import (
	"context"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddMovie(ctx context.Context, movie Movie) (Movie, error)
	GetMovie(ctx context.Context, id int64) (Movie, bool)
	ListMovies(ctx context.Context) []Movie
	CountMovies(ctx context.Context) int
}
