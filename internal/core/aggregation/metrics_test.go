package aggregation

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type eventOpt func(*v1.SalesEvent)

func newEvent(id, eventType, productID string, qty int64, amount string, opts ...eventOpt) *v1.SalesEvent {
	evt := &v1.SalesEvent{
		EventID:        id,
		SellerID:       "S1",
		ProductID:      productID,
		EventType:      eventType,
		Channel:        "web",
		Quantity:       qty,
		TotalAmount:    decimal.RequireFromString(amount),
		NetRevenue:     decimal.RequireFromString(amount).Mul(decimal.RequireFromString("0.9")),
		EventTimestamp: baseTime,
	}
	for _, opt := range opts {
		opt(evt)
	}
	return evt
}

func withChannel(ch string) eventOpt {
	return func(e *v1.SalesEvent) { e.Channel = ch }
}

func withName(name string, at time.Time) eventOpt {
	return func(e *v1.SalesEvent) {
		e.ProductName = name
		e.EventTimestamp = at
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.True(t, dec(want).Equal(got), append([]interface{}{fmt.Sprintf("want %s, got %s", want, got)}, msgAndArgs...)...)
}

func TestComputeMetrics_BasicRollup(t *testing.T) {
	events := []*v1.SalesEvent{
		newEvent("e1", v1.EventPaid, "P1", 2, "200"),
		newEvent("e2", v1.EventPaid, "P1", 1, "100"),
		newEvent("e3", v1.EventPaid, "P1", 3, "300"),
	}

	m := ComputeMetrics(events)

	requireDecimal(t, "600", m.TotalRevenue)
	require.Equal(t, int64(3), m.TotalOrders)
	require.Equal(t, int64(6), m.TotalQuantity)
	requireDecimal(t, "200", m.AverageOrderValue)
	require.Equal(t, 1, m.UniqueProductCount)
	require.Len(t, m.TopProducts, 1)
	require.Equal(t, int64(6), m.TopProducts[0].Units)
	require.Equal(t, int64(3), m.TopProducts[0].Orders)
}

func TestComputeMetrics_FinancialFiltering(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		counted   bool
	}{
		{name: "created excluded", eventType: v1.EventCreated},
		{name: "cancelled excluded", eventType: v1.EventCancelled},
		{name: "unknown type excluded", eventType: "disputed"},
		{name: "paid counted", eventType: v1.EventPaid, counted: true},
		{name: "fulfilled counted", eventType: v1.EventFulfilled, counted: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := ComputeMetrics([]*v1.SalesEvent{newEvent("e1", tc.eventType, "P1", 1, "250")})
			if tc.counted {
				requireDecimal(t, "250", m.TotalRevenue)
				require.Equal(t, int64(1), m.TotalOrders)
				return
			}
			require.True(t, m.TotalRevenue.IsZero())
			require.Zero(t, m.TotalOrders)
			require.Zero(t, m.TotalQuantity)
			require.Zero(t, m.UniqueProductCount)
			require.Empty(t, m.TopProducts)
		})
	}
}

func TestComputeMetrics_RefundsDoNotReduceRevenue(t *testing.T) {
	events := []*v1.SalesEvent{
		newEvent("e1", v1.EventPaid, "P1", 1, "300"),
		newEvent("e2", v1.EventPaid, "P1", 1, "300"),
		newEvent("e3", v1.EventRefunded, "P1", 1, "300"),
	}

	m := ComputeMetrics(events)

	requireDecimal(t, "600", m.TotalRevenue)
	require.Equal(t, int64(2), m.TotalOrders)
	requireDecimal(t, "300", m.RefundedAmount)
	require.Equal(t, int64(1), m.RefundCount)
}

func TestComputeMetrics_AverageOrderValue(t *testing.T) {
	events := []*v1.SalesEvent{
		newEvent("e1", v1.EventPaid, "P1", 1, "100"),
		newEvent("e2", v1.EventPaid, "P2", 1, "200"),
		newEvent("e3", v1.EventPaid, "P3", 1, "300"),
		newEvent("e4", v1.EventPaid, "P4", 1, "400"),
	}

	m := ComputeMetrics(events)
	requireDecimal(t, "1000", m.TotalRevenue)
	require.Equal(t, int64(4), m.TotalOrders)
	requireDecimal(t, "250", m.AverageOrderValue)

	empty := ComputeMetrics(nil)
	require.Zero(t, empty.TotalOrders)
	require.True(t, empty.AverageOrderValue.IsZero())
}

func TestComputeMetrics_TopProductTieBreak(t *testing.T) {
	events := []*v1.SalesEvent{
		newEvent("e1", v1.EventPaid, "C", 1, "300"),
		newEvent("e2", v1.EventPaid, "B", 1, "500"),
		newEvent("e3", v1.EventPaid, "A", 1, "200"),
		newEvent("e4", v1.EventPaid, "A", 1, "300"),
	}

	m := ComputeMetrics(events)

	ids := make([]string, 0, len(m.TopProducts))
	for _, p := range m.TopProducts {
		ids = append(ids, p.ProductID)
	}
	require.Equal(t, []string{"A", "B", "C"}, ids)
	requireDecimal(t, "500", m.TopProducts[0].Revenue)
}

func TestComputeMetrics_TopProductsBounded(t *testing.T) {
	var events []*v1.SalesEvent
	for i := 0; i < 8; i++ {
		events = append(events, newEvent(fmt.Sprintf("e%d", i), v1.EventPaid, fmt.Sprintf("P%d", i), 1, fmt.Sprintf("%d", (i+1)*10)))
	}

	m := ComputeMetrics(events)

	require.Len(t, m.TopProducts, TopProductsLimit)
	require.Equal(t, 8, m.UniqueProductCount)
	require.Equal(t, "P7", m.TopProducts[0].ProductID)
	require.Equal(t, "P3", m.TopProducts[4].ProductID)
}

func TestComputeMetrics_ChannelBreakdown(t *testing.T) {
	events := []*v1.SalesEvent{
		newEvent("e1", v1.EventPaid, "P1", 1, "10", withChannel("web")),
		newEvent("e2", v1.EventPaid, "P1", 1, "20", withChannel(" Mobile ")),
		newEvent("e3", v1.EventPaid, "P1", 1, "30", withChannel("carrier-pigeon")),
		newEvent("e4", v1.EventPaid, "P1", 1, "40", withChannel("")),
	}

	m := ComputeMetrics(events)

	require.Len(t, m.ChannelBreakdown, len(Channels))
	for _, ch := range Channels {
		require.Contains(t, m.ChannelBreakdown, ch)
	}
	requireDecimal(t, "10", m.ChannelBreakdown[ChannelWeb])
	requireDecimal(t, "20", m.ChannelBreakdown[ChannelMobile])
	requireDecimal(t, "70", m.ChannelBreakdown[ChannelUnclassified])
	require.True(t, m.ChannelBreakdown[ChannelSocial].IsZero())

	sum := decimal.Zero
	for _, v := range m.ChannelBreakdown {
		sum = sum.Add(v)
	}
	require.True(t, sum.Equal(m.TotalRevenue))
}

func TestComputeMetrics_ChannelAliases(t *testing.T) {
	catalog, err := ParseChannelCatalog([]byte("aliases:\n  mobile: [ios, android]\n"))
	require.NoError(t, err)

	m := NewCalculator(catalog).Compute([]*v1.SalesEvent{
		newEvent("e1", v1.EventPaid, "P1", 1, "15", withChannel("iOS")),
	})
	requireDecimal(t, "15", m.ChannelBreakdown[ChannelMobile])
	require.True(t, m.ChannelBreakdown[ChannelUnclassified].IsZero())
}

func TestComputeMetrics_ProductNameFromLatestEvent(t *testing.T) {
	older := newEvent("e1", v1.EventPaid, "P1", 1, "10", withName("Basket", baseTime))
	newer := newEvent("e2", v1.EventPaid, "P1", 1, "10", withName("Woven basket", baseTime.Add(time.Hour)))

	forward := ComputeMetrics([]*v1.SalesEvent{older, newer})
	backward := ComputeMetrics([]*v1.SalesEvent{newer, older})

	require.Equal(t, "Woven basket", forward.TopProducts[0].ProductName)
	require.Equal(t, "Woven basket", backward.TopProducts[0].ProductName)
}

func TestComputeMetrics_PermutationInvariant(t *testing.T) {
	channels := []string{"web", "mobile", "marketplace", "direct", "social", "fax"}
	types := []string{v1.EventPaid, v1.EventFulfilled, v1.EventCreated, v1.EventRefunded}

	var events []*v1.SalesEvent
	for i := 0; i < 60; i++ {
		events = append(events, newEvent(
			fmt.Sprintf("e%02d", i),
			types[i%len(types)],
			fmt.Sprintf("P%d", i%7),
			int64(i%4+1),
			fmt.Sprintf("%d.%02d", 10+i*3, i%100),
			withChannel(channels[i%len(channels)]),
			withName(fmt.Sprintf("name-%d", i), baseTime.Add(time.Duration(i)*time.Minute)),
		))
	}

	want, err := json.Marshal(ComputeMetrics(events))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		shuffled := append([]*v1.SalesEvent(nil), events...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := json.Marshal(ComputeMetrics(shuffled))
		require.NoError(t, err)
		require.JSONEq(t, string(want), string(got), "round %d", round)
	}
}

func TestComputeMetrics_SkipsNilEvents(t *testing.T) {
	m := ComputeMetrics([]*v1.SalesEvent{nil, newEvent("e1", v1.EventPaid, "", 1, "5")})
	requireDecimal(t, "5", m.TotalRevenue)
	require.Zero(t, m.UniqueProductCount)
}
