package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrInvalidVersion      = errors.New("invalid version number")
	ErrEmptyStream         = errors.New("stream id must not be empty")
)

// Event is a journaled domain event with its stream metadata
type Event struct {
	ID         uuid.UUID              `json:"id" db:"id"`
	Position   int64                  `json:"position" db:"position"`
	StreamID   string                 `json:"stream_id" db:"stream_id"`
	StreamType string                 `json:"stream_type" db:"stream_type"`
	EventType  string                 `json:"event_type" db:"event_type"`
	EventData  json.RawMessage        `json:"event_data" db:"event_data"`
	Metadata   map[string]interface{} `json:"metadata" db:"metadata"`
	Version    int                    `json:"version" db:"version"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// Store is an append-only event journal
type Store interface {
	AppendEvents(ctx context.Context, streamID, streamType string, expectedVersion int, events []Event) error
	LoadEvents(ctx context.Context, streamID string, fromVersion, toVersion int) ([]Event, error)
	StreamEvents(ctx context.Context, fromPosition int64, batchSize int) ([]Event, error)
}

const schema = `
	CREATE TABLE IF NOT EXISTS events (
		position BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		stream_id TEXT NOT NULL,
		stream_type TEXT NOT NULL,
		event_type TEXT NOT NULL,
		event_data JSONB NOT NULL,
		metadata JSONB,
		version INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (stream_id, version)
	);
`

// EventStore is a PostgreSQL backed Store with optimistic concurrency
type EventStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewEventStore creates a new event store on top of an open database handle
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{
		db:     db,
		tracer: otel.Tracer("moviecatalog/eventstore"),
	}
}

// Migrate creates the events table if it does not exist yet
func (es *EventStore) Migrate(ctx context.Context) error {
	if _, err := es.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// AppendEvents atomically appends events to a stream
func (es *EventStore) AppendEvents(ctx context.Context, streamID, streamType string, expectedVersion int, events []Event) error {
	ctx, span := es.tracer.Start(ctx, "eventstore.append",
		trace.WithAttributes(
			attribute.String("stream.id", streamID),
			attribute.String("stream.type", streamType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	if err := checkAppend(streamID, expectedVersion); err != nil {
		return err
	}

	tx, err := es.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentVersion int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM events
		WHERE stream_id = $1
	`, streamID).Scan(&currentVersion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("query current version: %w", err)
	}

	if currentVersion != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", currentVersion),
			attribute.Bool("conflict.detected", true),
		)
		return ErrConcurrencyConflict
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, stream_id, stream_type, event_type, event_data, metadata, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING position
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, event := range events {
		version := expectedVersion + i + 1
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		metadataJSON, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata of event %d: %w", i, err)
		}

		var position int64
		err = stmt.QueryRowContext(
			ctx,
			event.ID,
			streamID,
			streamType,
			event.EventType,
			[]byte(event.EventData),
			metadataJSON,
			version,
			time.Now().UTC(),
		).Scan(&position)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("insert event %d: %w", i, err)
		}

		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.Int64("event.position", position),
			attribute.Int("event.version", version),
			attribute.String("event.type", event.EventType),
		))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return nil
}

// LoadEvents returns the events of one stream, optionally bounded by version
func (es *EventStore) LoadEvents(ctx context.Context, streamID string, fromVersion, toVersion int) ([]Event, error) {
	ctx, span := es.tracer.Start(ctx, "eventstore.load",
		trace.WithAttributes(
			attribute.String("stream.id", streamID),
			attribute.Int("from.version", fromVersion),
			attribute.Int("to.version", toVersion),
		),
	)
	defer span.End()

	query := `
		SELECT position, id, stream_id, stream_type, event_type, event_data, metadata, version, created_at
		FROM events
		WHERE stream_id = $1
		AND version >= $2
	`
	args := []interface{}{streamID, fromVersion}
	if toVersion > 0 {
		query += " AND version <= $3"
		args = append(args, toVersion)
	}
	query += " ORDER BY version ASC"

	rows, err := es.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

// StreamEvents provides a cursor over all streams ordered by global position
func (es *EventStore) StreamEvents(ctx context.Context, fromPosition int64, batchSize int) ([]Event, error) {
	ctx, span := es.tracer.Start(ctx, "eventstore.stream",
		trace.WithAttributes(
			attribute.Int64("from.position", fromPosition),
			attribute.Int("batch.size", batchSize),
		),
	)
	defer span.End()

	rows, err := es.db.QueryContext(ctx, `
		SELECT position, id, stream_id, stream_type, event_type, event_data, metadata, version, created_at
		FROM events
		WHERE position > $1
		ORDER BY position ASC
		LIMIT $2
	`, fromPosition, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query event stream: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("events.streamed", len(events)))
	return events, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var event Event
		var data, metadataJSON []byte

		err := rows.Scan(
			&event.Position,
			&event.ID,
			&event.StreamID,
			&event.StreamType,
			&event.EventType,
			&data,
			&metadataJSON,
			&event.Version,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.EventData = json.RawMessage(data)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of event %s: %w", event.ID, err)
			}
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func checkAppend(streamID string, expectedVersion int) error {
	if streamID == "" {
		return ErrEmptyStream
	}
	if expectedVersion < 0 {
		return ErrInvalidVersion
	}
	return nil
}
