package aggregation

import (
	"fmt"
	"sort"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/shopspring/decimal"
)

// ProcessingVersion is stamped on every document. Bump it when the metric
// definitions change so stale documents can be found and recomputed.
const ProcessingVersion = 2

// BuildAggregate recomputes the document for one bucket from its event history.
//
// history must already be scoped to the bucket: every event of the seller in
// the period for a seller-level key, only the product's events for a product key.
// Events failing validation are skipped and lower DataCompleteness. An event of
// another seller or outside the period is a contract violation and returns an error.
func BuildAggregate(calc *Calculator, key BucketKey, period PeriodKey, history []*v1.SalesEvent, now time.Time) (SalesAggregate, error) {
	if calc == nil {
		calc = defaultCalculator
	}
	if key.Granularity != period.Granularity || key.PeriodKey != period.Key {
		return SalesAggregate{}, fmt.Errorf("bucket %s does not match period %s/%s", key, period.Granularity, period.Key)
	}

	valid := make([]*v1.SalesEvent, 0, len(history))
	for _, evt := range history {
		if evt.Validate() != nil {
			continue
		}
		if evt.SellerID != key.SellerID {
			return SalesAggregate{}, fmt.Errorf("event %s belongs to seller %q", evt.EventID, evt.SellerID)
		}
		if !key.IsSellerLevel() && evt.ProductID != key.ProductID {
			return SalesAggregate{}, fmt.Errorf("event %s belongs to product %q", evt.EventID, evt.ProductID)
		}
		if !period.Contains(evt.EventTimestamp) {
			return SalesAggregate{}, fmt.Errorf("event %s at %s is outside %s", evt.EventID, evt.EventTimestamp.Format(time.RFC3339), period.Key)
		}
		valid = append(valid, evt)
	}

	completeness := 1.0
	if len(history) > 0 {
		completeness = float64(len(valid)) / float64(len(history))
	}

	m := calc.Compute(valid)

	top := make([]ProductSummary, len(m.TopProducts))
	for i, p := range m.TopProducts {
		p.Revenue = RoundMoney(p.Revenue)
		top[i] = p
	}

	doc := SalesAggregate{
		ID:          key.DocumentID(),
		SellerID:    key.SellerID,
		ProductID:   key.ProductID,
		Granularity: key.Granularity,
		PeriodKey:   period.Key,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,

		TotalRevenue:       RoundMoney(m.TotalRevenue),
		NetRevenue:         RoundMoney(m.NetRevenue),
		TotalOrders:        m.TotalOrders,
		TotalQuantity:      m.TotalQuantity,
		AverageOrderValue:  RoundMoney(m.AverageOrderValue),
		UniqueProductCount: m.UniqueProductCount,
		ChannelBreakdown:   roundBreakdown(m.ChannelBreakdown),
		TopProducts:        top,
		RefundedAmount:     RoundMoney(m.RefundedAmount),
		RefundCount:        m.RefundCount,

		TopSellingProductRevenue: decimal.Zero,

		EventCount:        len(history),
		DataCompleteness:  completeness,
		ProcessingVersion: ProcessingVersion,
		LastUpdated:       now.UTC(),
	}
	if len(top) > 0 {
		doc.TopSellingProduct = top[0].ProductID
		doc.TopSellingProductRevenue = top[0].Revenue
	}
	return doc, nil
}

// ProductIDs returns the distinct product ids present in events, sorted.
func ProductIDs(events []*v1.SalesEvent) []string {
	seen := make(map[string]struct{})
	for _, evt := range events {
		if evt == nil || evt.ProductID == "" {
			continue
		}
		seen[evt.ProductID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ForProduct narrows a seller's history to one product.
func ForProduct(events []*v1.SalesEvent, productID string) []*v1.SalesEvent {
	out := make([]*v1.SalesEvent, 0)
	for _, evt := range events {
		if evt != nil && evt.ProductID == productID {
			out = append(out, evt)
		}
	}
	return out
}
