package v1

import (
	"time"

	coreerrors "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/shopspring/decimal"
)

// Event types emitted by the order lifecycle upstream.
const (
	EventCreated   = "created"
	EventPaid      = "paid"
	EventFulfilled = "fulfilled"
	EventRefunded  = "refunded"
	EventCancelled = "cancelled"
)

// SalesEvent is one discrete, immutable sales fact produced by the order
// lifecycle. The aggregation engine only ever reads it.
type SalesEvent struct {
	// EventID is unique per seller; it is the idempotency key for the raw event store.
	EventID string `json:"event_id"`

	// SellerID is the primary aggregation dimension and is always required.
	SellerID string `json:"seller_id"`

	// ProductID is optional. Events without it only touch seller-level buckets.
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`

	EventType string `json:"event_type"`
	Channel   string `json:"channel,omitempty"`

	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	NetRevenue  decimal.Decimal `json:"net_revenue"`

	// EventTimestamp is when the sale happened (producer clock). Bucketing
	// always uses this, never the ingestion time.
	EventTimestamp time.Time `json:"event_timestamp"`
}

// Validate checks the fields the engine needs before an event may be queued.
// It returns a *errors.IngestError describing the first offending field.
func (e *SalesEvent) Validate() error {
	if e == nil {
		return coreerrors.NewIngestError("event", "event is required")
	}
	if e.EventID == "" {
		return coreerrors.NewIngestError("event_id", "is required")
	}
	if e.SellerID == "" {
		return coreerrors.NewIngestError("seller_id", "is required")
	}
	if e.EventType == "" {
		return coreerrors.NewIngestError("event_type", "is required")
	}
	if e.EventTimestamp.IsZero() {
		return coreerrors.NewIngestError("event_timestamp", "is required")
	}
	if e.Quantity < 0 {
		return coreerrors.NewIngestError("quantity", "must not be negative")
	}
	if e.TotalAmount.IsNegative() {
		return coreerrors.NewIngestError("total_amount", "must not be negative")
	}
	return nil
}

// IsRecognized reports whether the event denotes recognized revenue.
// Only paid and fulfilled events contribute to the primary rollup.
func (e *SalesEvent) IsRecognized() bool {
	return e.EventType == EventPaid || e.EventType == EventFulfilled
}
