package aggregation

import (
	"sort"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/shopspring/decimal"
)

// TopProductsLimit bounds AggregateMetrics.TopProducts.
const TopProductsLimit = 5

// Calculator turns a set of sales events into an AggregateMetrics snapshot.
// It holds no state between calls and is safe for concurrent use.
type Calculator struct {
	channels *ChannelCatalog
}

// NewCalculator creates a calculator. A nil catalog uses DefaultChannelCatalog.
func NewCalculator(channels *ChannelCatalog) *Calculator {
	if channels == nil {
		channels = DefaultChannelCatalog()
	}
	return &Calculator{channels: channels}
}

var defaultCalculator = NewCalculator(nil)

// ComputeMetrics computes metrics with the default channel catalog.
func ComputeMetrics(events []*v1.SalesEvent) AggregateMetrics {
	return defaultCalculator.Compute(events)
}

// productAcc accumulates one product's subtotal. The name is taken from the
// latest event so the result does not depend on input order.
type productAcc struct {
	summary ProductSummary
	nameAt  *v1.SalesEvent
}

// Compute aggregates recognized (paid/fulfilled) events. The result is the
// same for any permutation of events.
func (c *Calculator) Compute(events []*v1.SalesEvent) AggregateMetrics {
	m := AggregateMetrics{
		TotalRevenue:      decimal.Zero,
		NetRevenue:        decimal.Zero,
		AverageOrderValue: decimal.Zero,
		RefundedAmount:    decimal.Zero,
		ChannelBreakdown:  make(map[string]decimal.Decimal, len(Channels)),
		TopProducts:       []ProductSummary{},
	}
	for _, ch := range Channels {
		m.ChannelBreakdown[ch] = decimal.Zero
	}

	products := make(map[string]*productAcc)

	for _, evt := range events {
		if evt == nil {
			continue
		}
		if evt.EventType == v1.EventRefunded {
			m.RefundedAmount = m.RefundedAmount.Add(evt.TotalAmount)
			m.RefundCount++
			continue
		}
		if !evt.IsRecognized() {
			continue
		}

		m.TotalRevenue = m.TotalRevenue.Add(evt.TotalAmount)
		m.NetRevenue = m.NetRevenue.Add(evt.NetRevenue)
		m.TotalOrders++
		m.TotalQuantity += evt.Quantity

		ch := c.channels.Normalize(evt.Channel)
		m.ChannelBreakdown[ch] = m.ChannelBreakdown[ch].Add(evt.TotalAmount)

		if evt.ProductID == "" {
			continue
		}
		acc, ok := products[evt.ProductID]
		if !ok {
			acc = &productAcc{summary: ProductSummary{ProductID: evt.ProductID, Revenue: decimal.Zero}}
			products[evt.ProductID] = acc
		}
		acc.summary.Revenue = acc.summary.Revenue.Add(evt.TotalAmount)
		acc.summary.Units += evt.Quantity
		acc.summary.Orders++
		if evt.ProductName != "" && newerThan(evt, acc.nameAt) {
			acc.summary.ProductName = evt.ProductName
			acc.nameAt = evt
		}
	}

	m.UniqueProductCount = len(products)
	m.TopProducts = rankProducts(products, TopProductsLimit)

	if m.TotalOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue.Div(decimal.NewFromInt(m.TotalOrders))
	}
	return m
}

// rankProducts orders products by revenue descending, ties by product id ascending.
func rankProducts(products map[string]*productAcc, limit int) []ProductSummary {
	ranked := make([]ProductSummary, 0, len(products))
	for _, acc := range products {
		ranked = append(ranked, acc.summary)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Revenue.Cmp(ranked[j].Revenue); c != 0 {
			return c > 0
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func newerThan(evt, current *v1.SalesEvent) bool {
	if current == nil {
		return true
	}
	if !evt.EventTimestamp.Equal(current.EventTimestamp) {
		return evt.EventTimestamp.After(current.EventTimestamp)
	}
	return evt.EventID > current.EventID
}
