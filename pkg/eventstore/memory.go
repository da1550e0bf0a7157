package eventstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the journal in process memory. It follows the same
// versioning rules as EventStore.
type MemoryStore struct {
	mu       sync.RWMutex
	events   []Event
	versions map[string]int
}

// NewMemoryStore creates an empty in-memory journal
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]int)}
}

// AppendEvents appends events to a stream if its version matches expectedVersion
func (m *MemoryStore) AppendEvents(_ context.Context, streamID, streamType string, expectedVersion int, events []Event) error {
	if err := checkAppend(streamID, expectedVersion); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.versions[streamID] != expectedVersion {
		return ErrConcurrencyConflict
	}

	now := time.Now().UTC()
	for i, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		event.Position = int64(len(m.events)) + 1
		event.StreamID = streamID
		event.StreamType = streamType
		event.Version = expectedVersion + i + 1
		event.CreatedAt = now
		m.events = append(m.events, cloneEvent(event))
	}
	m.versions[streamID] = expectedVersion + len(events)
	return nil
}

// LoadEvents returns the events of one stream, optionally bounded by version
func (m *MemoryStore) LoadEvents(_ context.Context, streamID string, fromVersion, toVersion int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for _, event := range m.events {
		if event.StreamID != streamID || event.Version < fromVersion {
			continue
		}
		if toVersion > 0 && event.Version > toVersion {
			continue
		}
		out = append(out, cloneEvent(event))
	}
	return out, nil
}

// StreamEvents returns up to batchSize events after fromPosition
func (m *MemoryStore) StreamEvents(_ context.Context, fromPosition int64, batchSize int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= int64(len(m.events)) || batchSize <= 0 {
		return nil, nil
	}
	end := fromPosition + int64(batchSize)
	if end > int64(len(m.events)) {
		end = int64(len(m.events))
	}
	out := make([]Event, 0, end-fromPosition)
	for _, event := range m.events[fromPosition:end] {
		out = append(out, cloneEvent(event))
	}
	return out, nil
}

// cloneEvent detaches the payload and metadata so callers never alias the journal.
func cloneEvent(event Event) Event {
	event.EventData = append(json.RawMessage(nil), event.EventData...)
	if event.Metadata != nil {
		metadata := make(map[string]interface{}, len(event.Metadata))
		for k, v := range event.Metadata {
			metadata[k] = v
		}
		event.Metadata = metadata
	}
	return event
}
