package memory

import (
	"context"
	"testing"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	_ storage.EventStore     = (*EventStore)(nil)
	_ storage.AggregateStore = (*AggregateStore)(nil)
)

func TestEventStore_SaveAndRange(t *testing.T) {
	ctx := context.Background()
	s := NewEventStore()
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{day.Add(3 * time.Hour), day.Add(time.Hour), day.AddDate(0, 0, 1), day.Add(-time.Second)} {
		require.NoError(t, s.SaveEvent(ctx, &v1.SalesEvent{
			EventID:        string(rune('a' + i)),
			SellerID:       "S1",
			EventType:      v1.EventPaid,
			EventTimestamp: at,
		}))
	}
	require.NoError(t, s.SaveEvent(ctx, &v1.SalesEvent{EventID: "a", SellerID: "S2", EventType: v1.EventPaid, EventTimestamp: day}))

	err := s.SaveEvent(ctx, &v1.SalesEvent{EventID: "a", SellerID: "S1"})
	require.ErrorIs(t, err, storage.ErrDuplicate)

	events, err := s.GetEventsInRange(ctx, "S1", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "b", events[0].EventID)
	require.Equal(t, "a", events[1].EventID)
	require.Equal(t, 5, s.Len())
}

func TestAggregateStore_OverwriteNotMerge(t *testing.T) {
	ctx := context.Background()
	s := NewAggregateStore()

	doc := aggregation.SalesAggregate{
		ID:               "S1:*:daily:2025-03-14",
		SellerID:         "S1",
		Granularity:      aggregation.Daily,
		PeriodKey:        "2025-03-14",
		TotalRevenue:     decimal.NewFromInt(600),
		ChannelBreakdown: map[string]decimal.Decimal{"web": decimal.NewFromInt(600)},
	}
	require.NoError(t, s.Upsert(ctx, doc))

	doc.TotalRevenue = decimal.NewFromInt(100)
	doc.ChannelBreakdown = map[string]decimal.Decimal{"mobile": decimal.NewFromInt(100)}
	require.NoError(t, s.Upsert(ctx, doc))

	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(100).Equal(got.TotalRevenue))
	require.NotContains(t, got.ChannelBreakdown, "web")
	require.Equal(t, 1, s.Len())

	got.ChannelBreakdown["mobile"] = decimal.Zero
	again, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(100).Equal(again.ChannelBreakdown["mobile"]))

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAggregateStore_ListBucketAndRetention(t *testing.T) {
	ctx := context.Background()
	s := NewAggregateStore()
	end := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, product := range []string{"P2", "", "P1"} {
		require.NoError(t, s.Upsert(ctx, aggregation.SalesAggregate{
			ID:          aggregation.DocumentID("S1", product, aggregation.Daily, "2025-03-14"),
			SellerID:    "S1",
			ProductID:   product,
			Granularity: aggregation.Daily,
			PeriodKey:   "2025-03-14",
			PeriodEnd:   end,
		}))
	}
	require.NoError(t, s.Upsert(ctx, aggregation.SalesAggregate{
		ID:          aggregation.DocumentID("S1", "", aggregation.Yearly, "2025"),
		SellerID:    "S1",
		Granularity: aggregation.Yearly,
		PeriodKey:   "2025",
		PeriodEnd:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	docs, err := s.ListBucket(ctx, "S1", aggregation.Daily, "2025-03-14")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, []string{"", "P1", "P2"}, []string{docs[0].ProductID, docs[1].ProductID, docs[2].ProductID})

	deleted, err := s.DeleteOlderThan(ctx, end.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)
	require.Equal(t, 1, s.Len())
}
