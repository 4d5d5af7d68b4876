package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftmarket/salesagg/internal/cache"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/craftmarket/salesagg/internal/core/storage"
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid aggregate query")

	// ErrNoSales is returned when a product has no events in the requested period.
	ErrNoSales = errors.New("no sales in period")
)

// Recomputer builds documents on demand when nothing has been persisted yet.
type Recomputer interface {
	CalculatePeriod(ctx context.Context, sellerID string, period aggregation.PeriodKey) ([]aggregation.SalesAggregate, error)
	Resolver() *aggregation.Resolver
}

// Service implements the dashboard read path: cache, then store, then an
// on-demand recompute.
type Service struct {
	store  storage.AggregateStore
	cache  cache.AggregateCache
	engine Recomputer
	nowFn  func() time.Time
}

// NewService creates a new projection service. A nil cache disables caching.
func NewService(store storage.AggregateStore, c cache.AggregateCache, engine Recomputer) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:  store,
		cache:  c,
		engine: engine,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// QueryAggregate returns one document, recomputing it synchronously when no
// flush has persisted it yet.
func (s *Service) QueryAggregate(ctx context.Context, req AggregateQueryRequest) (*AggregateQueryResponse, error) {
	if req.SellerID == "" {
		return nil, invalidQueryf("seller_id is required")
	}
	g, period, err := s.resolvePeriod(req.Granularity, req.Period)
	if err != nil {
		return nil, err
	}
	key := aggregation.BucketKey{SellerID: req.SellerID, ProductID: req.ProductID, Granularity: g, PeriodKey: period.Key}
	id := key.DocumentID()

	doc, hit, err := s.cache.Get(ctx, id)
	if err != nil {
		slog.Warn("Aggregate cache read failed", "bucket", id, "error", err)
	}
	if hit {
		return s.respond(*doc, SourceCache), nil
	}

	doc, err = s.store.Get(ctx, id)
	switch {
	case err == nil:
		if err := s.cache.Fill(ctx, *doc); err != nil {
			slog.Warn("Aggregate cache fill failed", "bucket", id, "error", err)
		}
		return s.respond(*doc, SourceStore), nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("get aggregate %s: %w", id, err)
	}

	docs, err := s.engine.CalculatePeriod(ctx, req.SellerID, period)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", id, err)
	}
	for _, d := range docs {
		if d.ID == id {
			return s.respond(d, SourceRecompute), nil
		}
	}
	return nil, fmt.Errorf("%w: product %s in %s", ErrNoSales, req.ProductID, period.Key)
}

// QuerySeries returns the stored documents of consecutive periods. It never
// recomputes; missing periods are reported instead.
func (s *Service) QuerySeries(ctx context.Context, req SeriesQueryRequest) (*SeriesQueryResponse, error) {
	if req.SellerID == "" {
		return nil, invalidQueryf("seller_id is required")
	}
	g, err := aggregation.ParseGranularity(req.Granularity)
	if err != nil {
		return nil, invalidQueryf("%v", err)
	}
	periods, err := periodsBetween(s.engine.Resolver(), g, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	resp := &SeriesQueryResponse{
		SellerID:       req.SellerID,
		ProductID:      req.ProductID,
		Granularity:    string(g),
		Values:         make([]aggregation.SalesAggregate, 0, len(periods)),
		MissingPeriods: []string{},
	}
	for _, p := range periods {
		id := aggregation.DocumentID(req.SellerID, req.ProductID, g, p.Key)
		doc, err := s.store.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			resp.MissingPeriods = append(resp.MissingPeriods, p.Key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get aggregate %s: %w", id, err)
		}
		resp.Values = append(resp.Values, *doc)
	}
	return resp, nil
}

// QueryProducts returns the seller document and every product document of one bucket.
func (s *Service) QueryProducts(ctx context.Context, sellerID, granularity, periodKey string) (*ProductsQueryResponse, error) {
	if sellerID == "" {
		return nil, invalidQueryf("seller_id is required")
	}
	g, period, err := s.resolvePeriod(granularity, periodKey)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.ListBucket(ctx, sellerID, g, period.Key)
	if err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}

	resp := &ProductsQueryResponse{
		SellerID:    sellerID,
		Granularity: string(g),
		PeriodKey:   period.Key,
		Products:    make([]aggregation.SalesAggregate, 0, len(docs)),
	}
	for i := range docs {
		if docs[i].ProductID == "" {
			resp.Seller = &docs[i]
			continue
		}
		resp.Products = append(resp.Products, docs[i])
	}
	return resp, nil
}

func (s *Service) resolvePeriod(granularity, key string) (aggregation.Granularity, aggregation.PeriodKey, error) {
	if granularity == "" {
		granularity = string(aggregation.Daily)
	}
	g, err := aggregation.ParseGranularity(granularity)
	if err != nil {
		return "", aggregation.PeriodKey{}, invalidQueryf("%v", err)
	}

	r := s.engine.Resolver()
	if key == "" {
		p, err := r.Resolve(s.nowFn(), g)
		return g, p, err
	}
	p, err := r.Parse(g, key)
	if err != nil {
		return "", aggregation.PeriodKey{}, invalidQueryf("%v", err)
	}
	return g, p, nil
}

func (s *Service) respond(doc aggregation.SalesAggregate, source string) *AggregateQueryResponse {
	staleness := int(s.nowFn().Sub(doc.LastUpdated).Seconds())
	if staleness < 0 {
		staleness = 0
	}
	return &AggregateQueryResponse{
		Aggregate:        doc,
		Source:           source,
		StalenessSeconds: staleness,
	}
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
