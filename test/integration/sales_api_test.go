//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type aggregateBody struct {
	Aggregate struct {
		ID           string          `json:"id"`
		PeriodKey    string          `json:"period_key"`
		TotalRevenue decimal.Decimal `json:"total_revenue"`
		TotalOrders  int64           `json:"total_orders"`
		EventCount   int             `json:"event_count"`
	} `json:"aggregate"`
	Source string `json:"source"`
}

func saleAt(sellerID, eventID, productID string, amount string, at time.Time) v1.SalesEvent {
	total := decimal.RequireFromString(amount)
	return v1.SalesEvent{
		EventID:        eventID,
		SellerID:       sellerID,
		ProductID:      productID,
		EventType:      v1.EventPaid,
		Channel:        "web",
		Quantity:       1,
		UnitPrice:      total,
		TotalAmount:    total,
		NetRevenue:     total,
		EventTimestamp: at,
	}
}

func TestSalesAPI_IngestAndQueryDaily(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	sellerID := fmt.Sprintf("seller-%d", time.Now().UnixNano())
	at := time.Now().UTC().Truncate(time.Second)

	for i, amount := range []string{"100.00", "250.50"} {
		evt := saleAt(sellerID, fmt.Sprintf("evt-%d", i), "sku-1", amount, at)
		status, body := postJSON(t, h.client, h.baseURL+"/v1/sales-events", evt)
		require.Equal(t, http.StatusAccepted, status, string(body))
	}

	// seller and product rows for all four granularities
	waitForAggregateRows(t, h.db, sellerID, 8, 10*time.Second)

	day, err := aggregation.Resolve(at, aggregation.Daily)
	require.NoError(t, err)

	query := url.Values{}
	query.Set("granularity", "daily")
	query.Set("period", day.Key)
	status, body := getJSON(t, h.client, fmt.Sprintf("%s/v1/aggregates/%s?%s", h.baseURL, sellerID, query.Encode()))
	require.Equal(t, http.StatusOK, status, string(body))

	var payload aggregateBody
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "store", payload.Source)
	require.Equal(t, day.Key, payload.Aggregate.PeriodKey)
	require.True(t, decimal.RequireFromString("350.50").Equal(payload.Aggregate.TotalRevenue), payload.Aggregate.TotalRevenue.String())
	require.Equal(t, int64(2), payload.Aggregate.TotalOrders)
	require.Equal(t, 2, payload.Aggregate.EventCount)
}

func TestSalesAPI_DuplicateEventReturnsConflict(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	evt := saleAt("seller-duplicate", "evt-duplicate-integration", "", "10.00", time.Now().UTC().Truncate(time.Second))

	status, body := postJSON(t, h.client, h.baseURL+"/v1/sales-events", evt)
	require.Equal(t, http.StatusAccepted, status, string(body))

	status, body = postJSON(t, h.client, h.baseURL+"/v1/sales-events", evt)
	require.Equal(t, http.StatusConflict, status, string(body))
}

func TestSalesAPI_RecomputeWithoutScheduler(t *testing.T) {
	h := startHarnessWithoutScheduler(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	sellerID := "seller-recompute"
	at := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	evt := saleAt(sellerID, "evt-recompute", "sku-9", "42.00", at)
	status, body := postJSON(t, h.client, h.baseURL+"/v1/sales-events", evt)
	require.Equal(t, http.StatusAccepted, status, string(body))

	query := url.Values{}
	query.Set("granularity", "weekly")
	query.Set("period", "2025-W11")
	status, body = getJSON(t, h.client, fmt.Sprintf("%s/v1/aggregates/%s?%s", h.baseURL, sellerID, query.Encode()))
	require.Equal(t, http.StatusOK, status, string(body))

	var payload aggregateBody
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "recompute", payload.Source)
	require.True(t, decimal.RequireFromString("42").Equal(payload.Aggregate.TotalRevenue))

	status, body = getJSON(t, h.client, h.baseURL+"/v1/admin/aggregation/pending")
	require.Equal(t, http.StatusOK, status, string(body))
	var pending struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &pending))
	require.Equal(t, 8, pending.Count)
}

func TestSalesAPI_SeriesReportsMissingPeriods(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	require.NoError(t, resetDatabase(t, h.db))

	sellerID := "seller-series"
	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	evt := saleAt(sellerID, "evt-series", "", "75.00", first)
	status, body := postJSON(t, h.client, h.baseURL+"/v1/sales-events", evt)
	require.Equal(t, http.StatusAccepted, status, string(body))

	waitForAggregateRows(t, h.db, sellerID, 4, 10*time.Second)

	query := url.Values{}
	query.Set("granularity", "daily")
	query.Set("start", "2025-03-10T00:00:00Z")
	query.Set("end", "2025-03-12T00:00:00Z")
	status, body = getJSON(t, h.client, fmt.Sprintf("%s/v1/aggregates/%s/series?%s", h.baseURL, sellerID, query.Encode()))
	require.Equal(t, http.StatusOK, status, string(body))

	var series struct {
		Values []struct {
			PeriodKey string `json:"period_key"`
		} `json:"values"`
		MissingPeriods []string `json:"missing_periods"`
	}
	require.NoError(t, json.Unmarshal(body, &series))
	require.Len(t, series.Values, 1)
	require.Equal(t, "2025-03-10", series.Values[0].PeriodKey)
	require.Equal(t, []string{"2025-03-11"}, series.MissingPeriods)
}
