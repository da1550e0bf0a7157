// internal/catalog/journal.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"moviecatalog/pkg/eventstore"
)

const streamType = "movie"

// EventSink receives catalog events after the catalog has changed.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) error { return nil }

// MultiSink delivers each event to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JournalSink records catalog events in an event store, one stream per movie.
// Identifiers restart at 1 with every process, so streams are scoped to the
// run that created them.
type JournalSink struct {
	store eventstore.Store
	runID uuid.UUID
}

func NewJournalSink(store eventstore.Store) *JournalSink {
	return &JournalSink{store: store, runID: uuid.New()}
}

// RunID identifies the process run whose events this sink records.
func (j *JournalSink) RunID() uuid.UUID {
	return j.runID
}

// StreamID names the journal stream of a movie created in this run.
func (j *JournalSink) StreamID(movieID int64) string {
	return streamType + "-" + j.runID.String() + "-" + strconv.FormatInt(movieID, 10)
}

func (j *JournalSink) Publish(ctx context.Context, event Event) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	record := eventstore.Event{
		ID:        event.ID,
		EventType: event.Type,
		EventData: jsonData,
		Metadata: map[string]interface{}{
			"occurred_at": event.OccurredAt,
			"run_id":      j.runID.String(),
			"movie_id":    event.MovieID,
		},
	}

	// Movies are never updated, so every stream holds exactly one event.
	if err := j.store.AppendEvents(ctx, j.StreamID(event.MovieID), streamType, 0, []eventstore.Event{record}); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}
