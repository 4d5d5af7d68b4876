package projection

import (
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
)

// Where a served aggregate came from.
const (
	SourceCache     = "cache"
	SourceStore     = "store"
	SourceRecompute = "recompute"
)

// AggregateQueryRequest selects one document. An empty Period means the
// period containing the current time.
type AggregateQueryRequest struct {
	SellerID    string
	ProductID   string
	Granularity string
	Period      string
}

// AggregateQueryResponse wraps a document with how fresh it is.
type AggregateQueryResponse struct {
	Aggregate        aggregation.SalesAggregate `json:"aggregate"`
	Source           string                     `json:"source"`
	StalenessSeconds int                        `json:"staleness_seconds"`
}

// SeriesQueryRequest selects one document per period between Start and End.
type SeriesQueryRequest struct {
	SellerID    string
	ProductID   string
	Granularity string
	Start       time.Time
	End         time.Time
}

// SeriesQueryResponse lists stored documents in period order. Periods with
// no stored document are listed in MissingPeriods.
type SeriesQueryResponse struct {
	SellerID       string                       `json:"seller_id"`
	ProductID      string                       `json:"product_id,omitempty"`
	Granularity    string                       `json:"granularity"`
	Values         []aggregation.SalesAggregate `json:"values"`
	MissingPeriods []string                     `json:"missing_periods"`
}

// ProductsQueryResponse lists every document of one seller bucket.
type ProductsQueryResponse struct {
	SellerID    string                       `json:"seller_id"`
	Granularity string                       `json:"granularity"`
	PeriodKey   string                       `json:"period_key"`
	Seller      *aggregation.SalesAggregate  `json:"seller,omitempty"`
	Products    []aggregation.SalesAggregate `json:"products"`
}
