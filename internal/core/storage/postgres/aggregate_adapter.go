package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/craftmarket/salesagg/internal/core/partition"
	"github.com/craftmarket/salesagg/internal/core/storage"
)

// AggregateAdapter implements storage.AggregateStore on the sales_aggregates table.
type AggregateAdapter struct {
	db *sql.DB
}

// NewAggregateAdapter creates an AggregateAdapter sharing the given connection.
func NewAggregateAdapter(db *sql.DB) *AggregateAdapter {
	return &AggregateAdapter{db: db}
}

// Upsert writes the whole document. An existing row with the same id is
// replaced column by column, never merged.
func (a *AggregateAdapter) Upsert(ctx context.Context, doc aggregation.SalesAggregate) error {
	channelsJSON, topJSON, err := marshalAggregateJSON(doc)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, queryUpsertAggregate,
		doc.ID,
		doc.SellerID,
		doc.ProductID,
		string(doc.Granularity),
		doc.PeriodKey,
		partition.For(doc.SellerID),
		doc.PeriodStart,
		doc.PeriodEnd,
		doc.TotalRevenue,
		doc.NetRevenue,
		doc.TotalOrders,
		doc.TotalQuantity,
		doc.AverageOrderValue,
		doc.UniqueProductCount,
		channelsJSON,
		topJSON,
		doc.RefundedAmount,
		doc.RefundCount,
		doc.TopSellingProduct,
		doc.TopSellingProductRevenue,
		doc.EventCount,
		doc.DataCompleteness,
		doc.ProcessingVersion,
		doc.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert aggregate %s: %w", doc.ID, err)
	}

	slog.Debug("[AggregateAdapter] Upserted", "id", doc.ID, "event_count", doc.EventCount)
	return nil
}

// Get returns storage.ErrNotFound when no row has the id.
func (a *AggregateAdapter) Get(ctx context.Context, id string) (*aggregation.SalesAggregate, error) {
	doc, err := scanAggregateRow(a.db.QueryRowContext(ctx, queryGetAggregate, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get aggregate %s: %w", id, err)
	}
	return doc, nil
}

// ListBucket returns the seller-level row first, then product rows by product id.
func (a *AggregateAdapter) ListBucket(
	ctx context.Context,
	sellerID string,
	g aggregation.Granularity,
	periodKey string,
) ([]aggregation.SalesAggregate, error) {
	rows, err := a.db.QueryContext(ctx, queryListBucket, sellerID, string(g), periodKey)
	if err != nil {
		return nil, fmt.Errorf("query sales_aggregates: %w", err)
	}
	defer rows.Close()

	var docs []aggregation.SalesAggregate
	for rows.Next() {
		doc, err := scanAggregateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return docs, nil
}

// DeleteOlderThan removes aggregates whose period ended before cutoff.
func (a *AggregateAdapter) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := a.db.ExecContext(ctx, queryDeleteAggregatesBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete aggregates before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete aggregates: rows affected: %w", err)
	}
	return deleted, nil
}
