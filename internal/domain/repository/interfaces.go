package repository

import (
	"context"
	"errors"
	"io"

	"AquaWatch/internal/domain/models"
)

// ErrNoHistory is returned by Latest when nothing has been appended yet.
var ErrNoHistory = errors.New("no history available")

// HistoryStore is the append-only sample log. Appends never propagate
// failures into the ingestion path; callers log and continue.
type HistoryStore interface {
	// Append persists a record and returns its monotonically increasing id.
	Append(ctx context.Context, rec *models.HistoryRecord) (uint64, error)
	// Latest returns the most recent record or ErrNoHistory.
	Latest(ctx context.Context) (*models.HistoryRecord, error)
	// Range returns up to limit records, most-recent-first unless ascending.
	Range(ctx context.Context, limit int, ascending bool) ([]*models.HistoryRecord, error)
	// ExportCSV streams records as CSV rows into w without materializing
	// the full result set.
	ExportCSV(ctx context.Context, limit int, w io.Writer) error
	Health(ctx context.Context) error
	Close() error
}

// DecisionCache holds the latest decision per pond for prioritization
// snapshots and dashboard reads.
type DecisionCache interface {
	Put(ctx context.Context, d *models.Decision) error
	Get(ctx context.Context, pondID string) (*models.Decision, error)
	// Snapshot returns the latest decision of every known pond.
	Snapshot(ctx context.Context) ([]*models.Decision, error)
}

// EventPublisher exports decision events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
	Close() error
}

// Broadcaster fans an event out to live subscribers. Publish must not block
// the caller; delivery is best-effort.
type Broadcaster interface {
	Publish(event interface{})
}

// Metrics records operational metrics.
type Metrics interface {
	RecordSample(pond string)
	RecordFallback(pond string)
	RecordDecision(action string)
	RecordBroadcast(delivered, failed int)
	RecordUrgency(pond string, urgency float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
