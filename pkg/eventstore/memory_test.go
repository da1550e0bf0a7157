package eventstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(t *testing.T, msg string) Event {
	t.Helper()
	data, err := json.Marshal(TestEvent{Message: msg})
	require.NoError(t, err)
	return Event{EventType: "TestEvent", EventData: data}
}

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.AppendEvents(ctx, "movie-1", "movie", 0, []Event{testEvent(t, "one"), testEvent(t, "two")}))
	require.NoError(t, store.AppendEvents(ctx, "movie-2", "movie", 0, []Event{testEvent(t, "other")}))
	require.NoError(t, store.AppendEvents(ctx, "movie-1", "movie", 2, []Event{testEvent(t, "three")}))

	events, err := store.LoadEvents(ctx, "movie-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, event := range events {
		assert.Equal(t, i+1, event.Version)
		assert.Equal(t, "movie-1", event.StreamID)
		assert.Equal(t, "movie", event.StreamType)
		assert.NotZero(t, event.ID)
	}

	bounded, err := store.LoadEvents(ctx, "movie-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	assert.JSONEq(t, `{"message":"two"}`, string(bounded[0].EventData))
}

func TestMemoryStoreRejectsStaleVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.AppendEvents(ctx, "movie-1", "movie", 0, []Event{testEvent(t, "one")}))

	err := store.AppendEvents(ctx, "movie-1", "movie", 0, []Event{testEvent(t, "again")})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	events, err := store.LoadEvents(ctx, "movie-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMemoryStoreRejectsBadArguments(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.AppendEvents(ctx, "", "movie", 0, nil), ErrEmptyStream)
	assert.ErrorIs(t, store.AppendEvents(ctx, "movie-1", "movie", -1, nil), ErrInvalidVersion)
}

func TestMemoryStoreStreamEvents(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, stream := range []string{"movie-1", "movie-2", "movie-3"} {
		require.NoError(t, store.AppendEvents(ctx, stream, "movie", 0, []Event{testEvent(t, stream)}))
	}

	first, err := store.StreamEvents(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, int64(1), first[0].Position)
	assert.Equal(t, int64(2), first[1].Position)

	rest, err := store.StreamEvents(ctx, first[len(first)-1].Position, 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "movie-3", rest[0].StreamID)

	none, err := store.StreamEvents(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreReadsAreDetached(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	event := testEvent(t, "one")
	event.Metadata = map[string]interface{}{"source": "test"}
	require.NoError(t, store.AppendEvents(ctx, "movie-1", "movie", 0, []Event{event}))

	loaded, err := store.LoadEvents(ctx, "movie-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	loaded[0].EventData[2] = 'X'
	loaded[0].Metadata["source"] = "tampered"

	streamed, err := store.StreamEvents(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, streamed, 1)
	streamed[0].EventData[2] = 'Y'
	streamed[0].Metadata["extra"] = true

	again, err := store.LoadEvents(ctx, "movie-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.JSONEq(t, `{"message":"one"}`, string(again[0].EventData))
	assert.Equal(t, map[string]interface{}{"source": "test"}, again[0].Metadata)
}
