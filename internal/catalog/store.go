// internal/catalog/store.go
package catalog

import (
	"math"
	"sync"
	"sync/atomic"
)

// Store owns the in-memory catalog and the identifier counter.
type Store struct {
	mu     sync.RWMutex
	movies []Movie
	index  map[int64]int // movie ID -> position in movies
	lastID atomic.Int64
}

// NewStore returns an empty store. The first movie created gets ID 1.
func NewStore() *Store {
	return &Store{
		movies: make([]Movie, 0, len(sampleMovies)),
		index:  make(map[int64]int, len(sampleMovies)),
	}
}

// NewSeededStore returns a store pre-populated with the sample movies.
func NewSeededStore() *Store {
	s := NewStore()
	for _, m := range SampleMovies() {
		if _, err := s.Create(m); err != nil {
			panic("catalog: invalid sample movie: " + err.Error())
		}
	}
	return s
}

// Create validates the movie, assigns the next identifier and appends it.
// Invalid movies are rejected before any shared state is touched.
func (s *Store) Create(m Movie) (Movie, error) {
	if err := ValidateMovie(m); err != nil {
		return Movie{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastID.Load() == math.MaxInt64 {
		panic("catalog: movie identifier space exhausted")
	}
	m.ID = s.lastID.Add(1)
	s.index[m.ID] = len(s.movies)
	s.movies = append(s.movies, m)
	return m, nil
}

// FindByID returns the movie with the given ID and whether it exists.
func (s *Store) FindByID(id int64) (Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return Movie{}, false
	}
	return s.movies[pos], true
}

// ListAll returns a copy of every movie in insertion order.
func (s *Store) ListAll() []Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Movie, len(s.movies))
	copy(out, s.movies)
	return out
}

// Len reports how many movies are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}
