// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "moviecatalog/catalog"

// service implements the Service interface.
type service struct {
	store    *Store
	sink     EventSink
	logger   *zap.Logger
	tracer   trace.Tracer
	created  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewService creates a catalog service over a store. A nil sink drops events.
func NewService(store *Store, sink EventSink, logger *zap.Logger) Service {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := otel.Meter(instrumentationName)
	created, err := meter.Int64Counter("catalog.movies.created",
		metric.WithDescription("Movies added to the catalog"))
	if err != nil {
		logger.Warn("Failed to create counter", zap.Error(err))
		created = noop.Int64Counter{}
	}
	rejected, err := meter.Int64Counter("catalog.movies.rejected",
		metric.WithDescription("Create requests rejected by validation"))
	if err != nil {
		logger.Warn("Failed to create counter", zap.Error(err))
		rejected = noop.Int64Counter{}
	}

	return &service{
		store:    store,
		sink:     sink,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		created:  created,
		rejected: rejected,
	}
}

// AddMovie validates the movie, stores it and publishes a MovieAdded event.
func (s *service) AddMovie(ctx context.Context, movie Movie) (Movie, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_movie",
		trace.WithAttributes(attribute.String("movie.title", movie.Title)),
	)
	defer span.End()

	stored, err := s.store.Create(movie)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.rejected.Add(ctx, 1)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "movie rejected")
		return Movie{}, err
	}
	span.SetAttributes(attribute.Int64("movie.id", stored.ID))
	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("movie.genre", stored.Genre)))

	// The movie is already visible; a sink failure must not turn into a failed create.
	if err := s.sink.Publish(ctx, newMovieAddedEvent(stored)); err != nil {
		span.RecordError(err)
		s.logger.Error("Failed to publish movie event",
			zap.Int64("movie_id", stored.ID),
			zap.Error(err),
		)
	}

	s.logger.Debug("Movie added", zap.Int64("movie_id", stored.ID), zap.String("title", stored.Title))
	return stored, nil
}

// GetMovie retrieves a movie by its ID.
func (s *service) GetMovie(ctx context.Context, id int64) (Movie, bool) {
	_, span := s.tracer.Start(ctx, "catalog.get_movie",
		trace.WithAttributes(attribute.Int64("movie.id", id)),
	)
	defer span.End()

	movie, ok := s.store.FindByID(id)
	span.SetAttributes(attribute.Bool("movie.found", ok))
	return movie, ok
}

// ListMovies returns every movie in insertion order.
func (s *service) ListMovies(ctx context.Context) []Movie {
	_, span := s.tracer.Start(ctx, "catalog.list_movies")
	defer span.End()

	movies := s.store.ListAll()
	span.SetAttributes(attribute.Int("movies.count", len(movies)))
	return movies
}

// CountMovies reports the catalog size without copying it.
func (s *service) CountMovies(ctx context.Context) int {
	_, span := s.tracer.Start(ctx, "catalog.count_movies")
	defer span.End()

	n := s.store.Len()
	span.SetAttributes(attribute.Int("movies.count", n))
	return n
}
