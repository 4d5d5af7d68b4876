package aggregation

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity is one of the four fixed rollup resolutions.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// Granularities lists every resolution an event is bucketed into, finest first.
var Granularities = []Granularity{Daily, Weekly, Monthly, Yearly}

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Daily, Weekly, Monthly, Yearly:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (must be daily, weekly, monthly or yearly)", s)
	}
}

// PeriodKey is the canonical period a timestamp falls into.
// The range is half-open: Start <= t < End.
type PeriodKey struct {
	Granularity Granularity
	Key         string
	Start       time.Time
	End         time.Time
}

// Contains reports whether t falls inside the period.
func (p PeriodKey) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// sellerLevelComponent marks a seller-level document id. Escaped product ids
// never produce a bare "*", so the two levels cannot collide.
const sellerLevelComponent = "*"

// BucketKey identifies one aggregate cell. An empty ProductID means seller level.
type BucketKey struct {
	SellerID    string
	ProductID   string
	Granularity Granularity
	PeriodKey   string
}

// IsSellerLevel reports whether the bucket aggregates every product of the seller.
func (k BucketKey) IsSellerLevel() bool {
	return k.ProductID == ""
}

// Group returns the seller-level bucket that shares this bucket's history range.
func (k BucketKey) Group() BucketKey {
	return BucketKey{SellerID: k.SellerID, Granularity: k.Granularity, PeriodKey: k.PeriodKey}
}

// DocumentID is the deterministic persisted id of the bucket.
func (k BucketKey) DocumentID() string {
	return DocumentID(k.SellerID, k.ProductID, k.Granularity, k.PeriodKey)
}

func (k BucketKey) String() string {
	return k.DocumentID()
}

// DocumentID derives the persisted document id from the bucket identity.
// Retried or replayed flushes always target the same document.
func DocumentID(sellerID, productID string, g Granularity, periodKey string) string {
	product := sellerLevelComponent
	if productID != "" {
		product = url.QueryEscape(productID)
	}
	return strings.Join([]string{url.QueryEscape(sellerID), product, string(g), periodKey}, ":")
}

// ProductSummary is a per-product subtotal inside a bucket.
type ProductSummary struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Revenue     decimal.Decimal `json:"revenue"`
	Units       int64           `json:"units"`
	Orders      int64           `json:"orders"`
}

// AggregateMetrics is the transient accumulator produced by the calculator.
// Values are exact; rounding happens only in BuildAggregate.
type AggregateMetrics struct {
	TotalRevenue       decimal.Decimal
	NetRevenue         decimal.Decimal
	TotalOrders        int64
	TotalQuantity      int64
	AverageOrderValue  decimal.Decimal
	UniqueProductCount int
	ChannelBreakdown   map[string]decimal.Decimal
	TopProducts        []ProductSummary

	// Refunds are tracked but never subtracted from recognized revenue.
	RefundedAmount decimal.Decimal
	RefundCount    int64
}

// SalesAggregate is the persisted rollup document for one bucket.
type SalesAggregate struct {
	ID          string      `json:"id"`
	SellerID    string      `json:"seller_id"`
	ProductID   string      `json:"product_id,omitempty"`
	Granularity Granularity `json:"granularity"`
	PeriodKey   string      `json:"period_key"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`

	TotalRevenue       decimal.Decimal            `json:"total_revenue"`
	NetRevenue         decimal.Decimal            `json:"net_revenue"`
	TotalOrders        int64                      `json:"total_orders"`
	TotalQuantity      int64                      `json:"total_quantity"`
	AverageOrderValue  decimal.Decimal            `json:"average_order_value"`
	UniqueProductCount int                        `json:"unique_product_count"`
	ChannelBreakdown   map[string]decimal.Decimal `json:"channel_breakdown"`
	TopProducts        []ProductSummary           `json:"top_products"`
	RefundedAmount     decimal.Decimal            `json:"refunded_amount"`
	RefundCount        int64                      `json:"refund_count"`

	TopSellingProduct        string          `json:"top_selling_product,omitempty"`
	TopSellingProductRevenue decimal.Decimal `json:"top_selling_product_revenue"`

	EventCount        int       `json:"event_count"`
	DataCompleteness  float64   `json:"data_completeness"`
	ProcessingVersion int       `json:"processing_version"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Key returns the bucket identity of the document.
func (a SalesAggregate) Key() BucketKey {
	return BucketKey{
		SellerID:    a.SellerID,
		ProductID:   a.ProductID,
		Granularity: a.Granularity,
		PeriodKey:   a.PeriodKey,
	}
}
