package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"moviecatalog/pkg/eventstore"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func TestAddMoviePublishesEvent(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(NewSeededStore(), sink, zaptest.NewLogger(t))

	created, err := svc.AddMovie(context.Background(), dune())
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, EventMovieAdded, event.Type)
	assert.Equal(t, int64(4), event.MovieID)
	assert.NotZero(t, event.ID)
	assert.Equal(t, MovieAddedEvent{ID: 4, Title: "Dune", ReleaseYear: 2021, Genre: "Sci-Fi", Rating: 8.0}, event.Data)

	found, ok := svc.GetMovie(context.Background(), 4)
	require.True(t, ok)
	assert.Equal(t, created, found)
}

func TestAddMovieRejectsInvalid(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(NewSeededStore(), sink, zaptest.NewLogger(t))

	bad := dune()
	bad.Genre = " "
	_, err := svc.AddMovie(context.Background(), bad)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "genre must not be blank", verr.Fields["genre"])
	assert.Empty(t, sink.events)
	assert.Len(t, svc.ListMovies(context.Background()), 3)
}

func TestAddMovieSurvivesSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker unavailable")}
	svc := NewService(NewSeededStore(), sink, zaptest.NewLogger(t))

	created, err := svc.AddMovie(context.Background(), dune())
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)
	assert.Len(t, svc.ListMovies(context.Background()), 4)
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(NewStore(), nil, nil)

	created, err := svc.AddMovie(context.Background(), dune())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, []Movie{created}, svc.ListMovies(context.Background()))
}

func TestGetMovieNotFound(t *testing.T) {
	svc := NewService(NewSeededStore(), nil, zaptest.NewLogger(t))

	_, ok := svc.GetMovie(context.Background(), 999)
	assert.False(t, ok)
}

func TestJournalSinkRecordsMovieStream(t *testing.T) {
	journal := eventstore.NewMemoryStore()
	sink := NewJournalSink(journal)
	svc := NewService(NewSeededStore(), sink, zaptest.NewLogger(t))
	ctx := context.Background()

	created, err := svc.AddMovie(ctx, dune())
	require.NoError(t, err)

	events, err := journal.LoadEvents(ctx, sink.StreamID(created.ID), 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "movie-"+sink.RunID().String()+"-4", events[0].StreamID)
	assert.Equal(t, sink.RunID().String(), events[0].Metadata["run_id"])
	assert.Equal(t, EventMovieAdded, events[0].EventType)
	assert.Equal(t, 1, events[0].Version)

	var data MovieAddedEvent
	require.NoError(t, json.Unmarshal(events[0].EventData, &data))
	assert.Equal(t, "Dune", data.Title)
	assert.Equal(t, int64(4), data.ID)
}

func TestCountMoviesTracksCreates(t *testing.T) {
	svc := NewService(NewSeededStore(), nil, zaptest.NewLogger(t))
	ctx := context.Background()
	assert.Equal(t, 3, svc.CountMovies(ctx))

	_, err := svc.AddMovie(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, 4, svc.CountMovies(ctx))

	bad := dune()
	bad.Rating = -1
	_, err = svc.AddMovie(ctx, bad)
	require.Error(t, err)
	assert.Equal(t, 4, svc.CountMovies(ctx))
	assert.Len(t, svc.ListMovies(ctx), svc.CountMovies(ctx))
}

func TestJournalSurvivesRestart(t *testing.T) {
	journal := eventstore.NewMemoryStore()
	ctx := context.Background()

	first := NewJournalSink(journal)
	before := NewService(NewSeededStore(), first, zaptest.NewLogger(t))
	created, err := before.AddMovie(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	// A fresh process re-seeds memory and hands out id 4 again.
	second := NewJournalSink(journal)
	after := NewService(NewSeededStore(), second, zaptest.NewLogger(t))
	created, err = after.AddMovie(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)

	require.NoError(t, second.Publish(ctx, newMovieAddedEvent(Movie{ID: 5, Title: "Arrival"})))

	all, err := journal.StreamEvents(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.StreamID(4), all[0].StreamID)
	assert.Equal(t, second.StreamID(4), all[1].StreamID)
	assert.NotEqual(t, all[0].StreamID, all[1].StreamID)
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("down")}
	sink := MultiSink{failing, ok}

	err := sink.Publish(context.Background(), newMovieAddedEvent(Movie{ID: 1, Title: "Dune"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)

	assert.NoError(t, MultiSink{ok}.Publish(context.Background(), Event{}))
}
