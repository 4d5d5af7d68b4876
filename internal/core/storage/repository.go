package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
)

// ErrDuplicate is returned when an event with the same (seller_id, event_id) already exists.
var ErrDuplicate = errors.New("event already exists")

// ErrNotFound is returned when no aggregate document has the requested id.
var ErrNotFound = errors.New("aggregate not found")

// EventSource is the historical event store the flush path re-reads from.
type EventSource interface {
	// GetEventsInRange returns every event of the seller with
	// start <= event_timestamp < end, in (event_timestamp, event_id) order.
	GetEventsInRange(ctx context.Context, sellerID string, start, end time.Time) ([]*v1.SalesEvent, error)
}

// EventStore persists raw events on the ingest path.
type EventStore interface {
	EventSource

	// SaveEvent stores the event. Returns ErrDuplicate if the seller already
	// has an event with the same id.
	SaveEvent(ctx context.Context, event *v1.SalesEvent) error
}

// AggregateStore persists rollup documents. Every write replaces the whole
// document; nothing is ever read-modify-written.
type AggregateStore interface {
	// Upsert inserts or fully overwrites the document keyed by doc.ID.
	Upsert(ctx context.Context, doc aggregation.SalesAggregate) error

	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, id string) (*aggregation.SalesAggregate, error)

	// ListBucket returns every document of one (seller, granularity, period):
	// the seller-level document first, then product documents by product id.
	ListBucket(ctx context.Context, sellerID string, g aggregation.Granularity, periodKey string) ([]aggregation.SalesAggregate, error)

	// DeleteOlderThan removes documents whose period ended before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
