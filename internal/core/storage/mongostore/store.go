// Package mongostore keeps aggregate documents in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	slog.Info("[Mongo] Connected")
	return client, nil
}

// AggregateStore implements storage.AggregateStore. The document id is the
// bucket's deterministic id, so ReplaceOne with upsert is a full overwrite.
type AggregateStore struct {
	coll *mongo.Collection
}

// NewAggregateStore wraps a collection.
func NewAggregateStore(coll *mongo.Collection) *AggregateStore {
	return &AggregateStore{coll: coll}
}

// EnsureIndexes creates the bucket lookup and retention indexes.
func (s *AggregateStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sellerId", Value: 1},
				{Key: "granularity", Value: 1},
				{Key: "periodKey", Value: 1},
				{Key: "productId", Value: 1},
			},
			Options: options.Index().SetName("bucket"),
		},
		{
			Keys:    bson.D{{Key: "periodEnd", Value: 1}},
			Options: options.Index().SetName("period_end"),
		},
	})
	if err != nil {
		return fmt.Errorf("create aggregate indexes: %w", err)
	}
	return nil
}

func (s *AggregateStore) Upsert(ctx context.Context, doc aggregation.SalesAggregate) error {
	d, err := toDocument(doc)
	if err != nil {
		return fmt.Errorf("encode aggregate %s: %w", doc.ID, err)
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, d, opts); err != nil {
		return fmt.Errorf("upsert aggregate %s: %w", doc.ID, err)
	}
	return nil
}

func (s *AggregateStore) Get(ctx context.Context, id string) (*aggregation.SalesAggregate, error) {
	var d aggregateDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get aggregate %s: %w", id, err)
	}

	doc, err := d.toAggregate()
	if err != nil {
		return nil, fmt.Errorf("decode aggregate %s: %w", id, err)
	}
	return &doc, nil
}

func (s *AggregateStore) ListBucket(ctx context.Context, sellerID string, g aggregation.Granularity, periodKey string) ([]aggregation.SalesAggregate, error) {
	filter := bson.M{
		"sellerId":    sellerID,
		"granularity": string(g),
		"periodKey":   periodKey,
	}
	opts := options.Find().SetSort(bson.D{{Key: "productId", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find aggregates: %w", err)
	}

	var docs []aggregateDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("read aggregates: %w", err)
	}

	out := make([]aggregation.SalesAggregate, 0, len(docs))
	for _, d := range docs {
		doc, err := d.toAggregate()
		if err != nil {
			return nil, fmt.Errorf("decode aggregate %s: %w", d.ID, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *AggregateStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"periodEnd": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete aggregates before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return res.DeletedCount, nil
}

// aggregateDocument is the BSON shape. Money is stored as Decimal128.
type aggregateDocument struct {
	ID          string    `bson:"_id"`
	SellerID    string    `bson:"sellerId"`
	ProductID   string    `bson:"productId"`
	Granularity string    `bson:"granularity"`
	PeriodKey   string    `bson:"periodKey"`
	PeriodStart time.Time `bson:"periodStart"`
	PeriodEnd   time.Time `bson:"periodEnd"`

	TotalRevenue       primitive.Decimal128            `bson:"totalRevenue"`
	NetRevenue         primitive.Decimal128            `bson:"netRevenue"`
	TotalOrders        int64                           `bson:"totalOrders"`
	TotalQuantity      int64                           `bson:"totalQuantity"`
	AverageOrderValue  primitive.Decimal128            `bson:"averageOrderValue"`
	UniqueProductCount int                             `bson:"uniqueProductCount"`
	ChannelBreakdown   map[string]primitive.Decimal128 `bson:"channelBreakdown"`
	TopProducts        []productDocument               `bson:"topProducts"`
	RefundedAmount     primitive.Decimal128            `bson:"refundedAmount"`
	RefundCount        int64                           `bson:"refundCount"`

	TopSellingProduct        string               `bson:"topSellingProduct"`
	TopSellingProductRevenue primitive.Decimal128 `bson:"topSellingProductRevenue"`

	EventCount        int       `bson:"eventCount"`
	DataCompleteness  float64   `bson:"dataCompleteness"`
	ProcessingVersion int       `bson:"processingVersion"`
	LastUpdated       time.Time `bson:"lastUpdated"`
}

type productDocument struct {
	ProductID   string               `bson:"productId"`
	ProductName string               `bson:"productName,omitempty"`
	Revenue     primitive.Decimal128 `bson:"revenue"`
	Units       int64                `bson:"units"`
	Orders      int64                `bson:"orders"`
}

// decimalCodec collects the first conversion error so the mapping code stays linear.
type decimalCodec struct {
	err error
}

func (c *decimalCodec) to(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("decimal %s: %w", d, err)
	}
	return v
}

func (c *decimalCodec) from(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("decimal128 %s: %w", v, err)
	}
	return d
}

func toDocument(doc aggregation.SalesAggregate) (aggregateDocument, error) {
	var c decimalCodec

	channels := make(map[string]primitive.Decimal128, len(doc.ChannelBreakdown))
	for k, v := range doc.ChannelBreakdown {
		channels[k] = c.to(v)
	}
	top := make([]productDocument, 0, len(doc.TopProducts))
	for _, p := range doc.TopProducts {
		top = append(top, productDocument{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Revenue:     c.to(p.Revenue),
			Units:       p.Units,
			Orders:      p.Orders,
		})
	}

	d := aggregateDocument{
		ID:                       doc.ID,
		SellerID:                 doc.SellerID,
		ProductID:                doc.ProductID,
		Granularity:              string(doc.Granularity),
		PeriodKey:                doc.PeriodKey,
		PeriodStart:              doc.PeriodStart,
		PeriodEnd:                doc.PeriodEnd,
		TotalRevenue:             c.to(doc.TotalRevenue),
		NetRevenue:               c.to(doc.NetRevenue),
		TotalOrders:              doc.TotalOrders,
		TotalQuantity:            doc.TotalQuantity,
		AverageOrderValue:        c.to(doc.AverageOrderValue),
		UniqueProductCount:       doc.UniqueProductCount,
		ChannelBreakdown:         channels,
		TopProducts:              top,
		RefundedAmount:           c.to(doc.RefundedAmount),
		RefundCount:              doc.RefundCount,
		TopSellingProduct:        doc.TopSellingProduct,
		TopSellingProductRevenue: c.to(doc.TopSellingProductRevenue),
		EventCount:               doc.EventCount,
		DataCompleteness:         doc.DataCompleteness,
		ProcessingVersion:        doc.ProcessingVersion,
		LastUpdated:              doc.LastUpdated,
	}
	return d, c.err
}

func (d aggregateDocument) toAggregate() (aggregation.SalesAggregate, error) {
	var c decimalCodec

	channels := make(map[string]decimal.Decimal, len(d.ChannelBreakdown))
	for k, v := range d.ChannelBreakdown {
		channels[k] = c.from(v)
	}
	top := make([]aggregation.ProductSummary, 0, len(d.TopProducts))
	for _, p := range d.TopProducts {
		top = append(top, aggregation.ProductSummary{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Revenue:     c.from(p.Revenue),
			Units:       p.Units,
			Orders:      p.Orders,
		})
	}

	doc := aggregation.SalesAggregate{
		ID:                       d.ID,
		SellerID:                 d.SellerID,
		ProductID:                d.ProductID,
		Granularity:              aggregation.Granularity(d.Granularity),
		PeriodKey:                d.PeriodKey,
		PeriodStart:              d.PeriodStart.UTC(),
		PeriodEnd:                d.PeriodEnd.UTC(),
		TotalRevenue:             c.from(d.TotalRevenue),
		NetRevenue:               c.from(d.NetRevenue),
		TotalOrders:              d.TotalOrders,
		TotalQuantity:            d.TotalQuantity,
		AverageOrderValue:        c.from(d.AverageOrderValue),
		UniqueProductCount:       d.UniqueProductCount,
		ChannelBreakdown:         channels,
		TopProducts:              top,
		RefundedAmount:           c.from(d.RefundedAmount),
		RefundCount:              d.RefundCount,
		TopSellingProduct:        d.TopSellingProduct,
		TopSellingProductRevenue: c.from(d.TopSellingProductRevenue),
		EventCount:               d.EventCount,
		DataCompleteness:         d.DataCompleteness,
		ProcessingVersion:        d.ProcessingVersion,
		LastUpdated:              d.LastUpdated.UTC(),
	}
	return doc, c.err
}
