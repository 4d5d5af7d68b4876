package postgres

// SQL for the sales_events and sales_aggregates tables.

const (
	queryTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`

	// querySaveEvent inserts a raw event. (seller_id, event_id) is the
	// idempotency key; a duplicate returns no row.
	querySaveEvent = `
		INSERT INTO sales_events (
			event_id, seller_id, partition_id, product_id, product_name,
			event_type, channel, quantity, unit_price, total_amount,
			net_revenue, event_timestamp, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (seller_id, event_id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryEventsPage is one keyset page of a seller's history range.
	// ($4, $5) is the (event_timestamp, event_id) of the last row already read.
	queryEventsPage = `
		SELECT
			event_id, seller_id, product_id, product_name, event_type, channel,
			quantity, unit_price, total_amount, net_revenue, event_timestamp
		FROM sales_events
		WHERE seller_id = $1
		  AND event_timestamp >= $2
		  AND event_timestamp < $3
		  AND (event_timestamp, event_id) > ($4, $5)
		ORDER BY event_timestamp ASC, event_id ASC
		LIMIT $6
	`

	// queryUpsertAggregate replaces every column on conflict. Nothing is
	// merged with the previous row.
	queryUpsertAggregate = `
		INSERT INTO sales_aggregates (
			id, seller_id, product_id, granularity, period_key, partition_id,
			period_start, period_end,
			total_revenue, net_revenue, total_orders, total_quantity,
			average_order_value, unique_product_count, channel_breakdown, top_products,
			refunded_amount, refund_count, top_selling_product, top_selling_product_revenue,
			event_count, data_completeness, processing_version, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		ON CONFLICT (id) DO UPDATE SET
			seller_id                   = EXCLUDED.seller_id,
			product_id                  = EXCLUDED.product_id,
			granularity                 = EXCLUDED.granularity,
			period_key                  = EXCLUDED.period_key,
			partition_id                = EXCLUDED.partition_id,
			period_start                = EXCLUDED.period_start,
			period_end                  = EXCLUDED.period_end,
			total_revenue               = EXCLUDED.total_revenue,
			net_revenue                 = EXCLUDED.net_revenue,
			total_orders                = EXCLUDED.total_orders,
			total_quantity              = EXCLUDED.total_quantity,
			average_order_value         = EXCLUDED.average_order_value,
			unique_product_count        = EXCLUDED.unique_product_count,
			channel_breakdown           = EXCLUDED.channel_breakdown,
			top_products                = EXCLUDED.top_products,
			refunded_amount             = EXCLUDED.refunded_amount,
			refund_count                = EXCLUDED.refund_count,
			top_selling_product         = EXCLUDED.top_selling_product,
			top_selling_product_revenue = EXCLUDED.top_selling_product_revenue,
			event_count                 = EXCLUDED.event_count,
			data_completeness           = EXCLUDED.data_completeness,
			processing_version          = EXCLUDED.processing_version,
			last_updated                = EXCLUDED.last_updated
	`

	aggregateColumns = `
			id, seller_id, product_id, granularity, period_key,
			period_start, period_end,
			total_revenue, net_revenue, total_orders, total_quantity,
			average_order_value, unique_product_count, channel_breakdown, top_products,
			refunded_amount, refund_count, top_selling_product, top_selling_product_revenue,
			event_count, data_completeness, processing_version, last_updated
	`

	queryGetAggregate = `SELECT` + aggregateColumns + `FROM sales_aggregates WHERE id = $1`

	// queryListBucket sorts the seller-level row ('' product) first.
	queryListBucket = `SELECT` + aggregateColumns + `FROM sales_aggregates
		WHERE seller_id = $1
		  AND granularity = $2
		  AND period_key = $3
		ORDER BY product_id ASC
	`

	queryDeleteAggregatesBefore = `DELETE FROM sales_aggregates WHERE period_end < $1`
)
