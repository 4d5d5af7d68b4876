package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans one queryEventsPage row. NUMERIC columns scan straight
// into decimal.Decimal.
func scanEventRow(row scanner) (*v1.SalesEvent, error) {
	var evt v1.SalesEvent

	err := row.Scan(
		&evt.EventID,
		&evt.SellerID,
		&evt.ProductID,
		&evt.ProductName,
		&evt.EventType,
		&evt.Channel,
		&evt.Quantity,
		&evt.UnitPrice,
		&evt.TotalAmount,
		&evt.NetRevenue,
		&evt.EventTimestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}
	evt.EventTimestamp = evt.EventTimestamp.UTC()
	return &evt, nil
}

// marshalAggregateJSON encodes the JSONB columns of an aggregate.
func marshalAggregateJSON(doc aggregation.SalesAggregate) (channelsJSON, topJSON []byte, err error) {
	channels := doc.ChannelBreakdown
	if channels == nil {
		channels = map[string]decimal.Decimal{}
	}
	channelsJSON, err = json.Marshal(channels)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal channel_breakdown: %w", err)
	}

	top := doc.TopProducts
	if top == nil {
		top = []aggregation.ProductSummary{}
	}
	topJSON, err = json.Marshal(top)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal top_products: %w", err)
	}
	return channelsJSON, topJSON, nil
}

// scanAggregateRow scans one row selected with aggregateColumns.
func scanAggregateRow(row scanner) (*aggregation.SalesAggregate, error) {
	var doc aggregation.SalesAggregate
	var granularity string
	var channelsJSON, topJSON []byte

	err := row.Scan(
		&doc.ID,
		&doc.SellerID,
		&doc.ProductID,
		&granularity,
		&doc.PeriodKey,
		&doc.PeriodStart,
		&doc.PeriodEnd,
		&doc.TotalRevenue,
		&doc.NetRevenue,
		&doc.TotalOrders,
		&doc.TotalQuantity,
		&doc.AverageOrderValue,
		&doc.UniqueProductCount,
		&channelsJSON,
		&topJSON,
		&doc.RefundedAmount,
		&doc.RefundCount,
		&doc.TopSellingProduct,
		&doc.TopSellingProductRevenue,
		&doc.EventCount,
		&doc.DataCompleteness,
		&doc.ProcessingVersion,
		&doc.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	doc.Granularity = aggregation.Granularity(granularity)

	if err := json.Unmarshal(channelsJSON, &doc.ChannelBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channel_breakdown: %w", err)
	}
	if err := json.Unmarshal(topJSON, &doc.TopProducts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal top_products: %w", err)
	}
	return &doc, nil
}
