// Package aggregation runs the real-time sales rollup: events are bucketed on
// ingest, pending buckets are flushed on a timer, and every flush recomputes
// whole documents from the event history.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/cache"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	coreerrors "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultWorkerCount   = 8
	defaultReadTimeout   = 30 * time.Second
	defaultUpsertTimeout = 10 * time.Second
)

// ErrDeadLetterNotFound is returned by Requeue for an unknown id.
var ErrDeadLetterNotFound = errors.New("dead letter not found")

// RuntimeConfig is the part of the engine configuration operators may change
// while it runs.
type RuntimeConfig struct {
	EnableRealTimeUpdates bool
	BatchSize             int
	UpdateInterval        time.Duration
	RetentionDays         int
}

func (c RuntimeConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update_interval must be positive, got %s", c.UpdateInterval)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	return nil
}

// Options are fixed for the engine's lifetime.
type Options struct {
	MaxPending    int
	WorkerCount   int
	ReadTimeout   time.Duration
	UpsertTimeout time.Duration
	Retry         RetryPolicy
}

func (o Options) normalized() Options {
	n := o
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	if n.ReadTimeout <= 0 {
		n.ReadTimeout = defaultReadTimeout
	}
	if n.UpsertTimeout <= 0 {
		n.UpsertTimeout = defaultUpsertTimeout
	}
	return n
}

// Deps are the engine's collaborators. Source and Store are required.
type Deps struct {
	Source     storage.EventSource
	Store      storage.AggregateStore
	Cache      cache.AggregateCache
	Channels   *aggregation.ChannelCatalog
	Location   *time.Location
	Registerer prometheus.Registerer
	Now        func() time.Time
}

// Engine owns the pending update queue and everything that drains it.
type Engine struct {
	source   storage.EventSource
	store    storage.AggregateStore
	cache    cache.AggregateCache
	calc     *aggregation.Calculator
	resolver *aggregation.Resolver
	nowFn    func() time.Time

	opts        Options
	queue       *Queue
	deadLetters *DeadLetterList
	metrics     *engineMetrics

	mu          sync.RWMutex
	runtime     RuntimeConfig
	reconfigure chan struct{}

	flushing atomic.Bool
}

func NewEngine(deps Deps, opts Options, rc RuntimeConfig) (*Engine, error) {
	if deps.Source == nil {
		return nil, errors.New("aggregation: event source is required")
	}
	if deps.Store == nil {
		return nil, errors.New("aggregation: aggregate store is required")
	}
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("aggregation: %w", err)
	}
	if deps.Cache == nil {
		deps.Cache = cache.Noop{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	opts = opts.normalized()

	e := &Engine{
		source:      deps.Source,
		store:       deps.Store,
		cache:       deps.Cache,
		calc:        aggregation.NewCalculator(deps.Channels),
		resolver:    aggregation.NewResolver(deps.Location),
		nowFn:       deps.Now,
		opts:        opts,
		queue:       NewQueue(opts.MaxPending, opts.Retry),
		deadLetters: NewDeadLetterList(0),
		runtime:     rc,
		reconfigure: make(chan struct{}, 1),
	}
	e.metrics = newEngineMetrics(deps.Registerer,
		func() float64 { return float64(e.queue.Len()) },
		func() float64 { return float64(e.deadLetters.Len()) },
	)
	return e, nil
}

// ProcessSalesEvent validates the event and marks every bucket it touches as
// pending. It never blocks on I/O. Malformed events return an *IngestError;
// a full queue returns ErrBackpressure. With real-time updates disabled the
// event is accepted and ignored.
func (e *Engine) ProcessSalesEvent(ctx context.Context, evt *v1.SalesEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := evt.Validate(); err != nil {
		e.metrics.eventsTotal.WithLabelValues(outcomeRejected).Inc()
		return err
	}
	if !e.RuntimeConfig().EnableRealTimeUpdates {
		e.metrics.eventsTotal.WithLabelValues(outcomeDisabled).Inc()
		return nil
	}

	periods := e.resolver.ResolveAll(evt.EventTimestamp)
	if err := e.queue.Enqueue(evt, periods, e.nowFn()); err != nil {
		e.metrics.eventsTotal.WithLabelValues(outcomeBackpressure).Inc()
		slog.Warn("[Engine] Pending queue full, rejecting event",
			"event_id", evt.EventID,
			"seller_id", evt.SellerID,
			"pending", e.queue.Len(),
		)
		return err
	}
	e.metrics.eventsTotal.WithLabelValues(outcomeAccepted).Inc()
	return nil
}

func (e *Engine) CalculateDailyAggregates(ctx context.Context, sellerID string, date time.Time) ([]aggregation.SalesAggregate, error) {
	return e.calculateAt(ctx, sellerID, aggregation.Daily, date)
}

func (e *Engine) CalculateWeeklyAggregates(ctx context.Context, sellerID string, date time.Time) ([]aggregation.SalesAggregate, error) {
	return e.calculateAt(ctx, sellerID, aggregation.Weekly, date)
}

func (e *Engine) CalculateMonthlyAggregates(ctx context.Context, sellerID string, date time.Time) ([]aggregation.SalesAggregate, error) {
	return e.calculateAt(ctx, sellerID, aggregation.Monthly, date)
}

func (e *Engine) CalculateYearlyAggregates(ctx context.Context, sellerID string, date time.Time) ([]aggregation.SalesAggregate, error) {
	return e.calculateAt(ctx, sellerID, aggregation.Yearly, date)
}

func (e *Engine) calculateAt(ctx context.Context, sellerID string, g aggregation.Granularity, at time.Time) ([]aggregation.SalesAggregate, error) {
	period, err := e.resolver.Resolve(at, g)
	if err != nil {
		return nil, err
	}
	return e.CalculatePeriod(ctx, sellerID, period)
}

// CalculatePeriod recomputes every document of one seller and period
// synchronously: the seller document first, then one per product ordered by
// product id. The documents are also persisted; write failures are logged and
// do not fail the call. Every persisted document is queued again so the next
// flush replaces it if a newer flush finished while this snapshot was taken.
func (e *Engine) CalculatePeriod(ctx context.Context, sellerID string, period aggregation.PeriodKey) ([]aggregation.SalesAggregate, error) {
	if sellerID == "" {
		return nil, coreerrors.NewIngestError("seller_id", "is required")
	}
	group := aggregation.BucketKey{SellerID: sellerID, Granularity: period.Granularity, PeriodKey: period.Key}

	history, err := e.readHistory(ctx, group, period)
	if err != nil {
		return nil, err
	}

	now := e.nowFn()
	docs, err := e.buildSellerDocuments(group, period, history, now)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if err := e.persist(ctx, doc); err != nil {
			slog.Warn("[Engine] On-demand aggregate not persisted",
				"bucket", doc.ID,
				"error", err,
			)
			continue
		}
		key := aggregation.BucketKey{
			SellerID:    doc.SellerID,
			ProductID:   doc.ProductID,
			Granularity: doc.Granularity,
			PeriodKey:   doc.PeriodKey,
		}
		if err := e.queue.Restore(key, period, now); err != nil {
			slog.Warn("[Engine] On-demand aggregate not queued for reconciliation",
				"bucket", doc.ID,
				"error", err,
			)
		}
	}
	return docs, nil
}

// Resolver exposes the engine's time-zone bound period resolver.
func (e *Engine) Resolver() *aggregation.Resolver {
	return e.resolver
}

// RuntimeConfig returns the current runtime configuration.
func (e *Engine) RuntimeConfig() RuntimeConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runtime
}

// UpdateConfig swaps the runtime configuration. The pending queue is kept;
// a running scheduler picks up the new interval without restarting.
func (e *Engine) UpdateConfig(rc RuntimeConfig) error {
	if err := rc.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	previous := e.runtime
	e.runtime = rc
	e.mu.Unlock()

	select {
	case e.reconfigure <- struct{}{}:
	default:
	}

	slog.Info("[Engine] Runtime configuration updated",
		"enable_real_time_updates", rc.EnableRealTimeUpdates,
		"batch_size", rc.BatchSize,
		"update_interval", rc.UpdateInterval,
		"retention_days", rc.RetentionDays,
		"previous_interval", previous.UpdateInterval,
	)
	return nil
}

// Pending returns a snapshot of the pending update queue.
func (e *Engine) Pending() []PendingUpdate {
	return e.queue.Snapshot()
}

// DeadLetters lists buckets parked after exhausting their retries.
func (e *Engine) DeadLetters() []DeadLetter {
	return e.deadLetters.List()
}

// Requeue moves a dead letter back into the pending queue with a fresh retry budget.
func (e *Engine) Requeue(id string) error {
	d, ok := e.deadLetters.Take(id)
	if !ok {
		return ErrDeadLetterNotFound
	}

	period := d.period
	if period.Key == "" {
		p, err := e.resolver.Parse(d.Granularity, d.PeriodKey)
		if err != nil {
			return err
		}
		period = p
	}
	if err := e.queue.Restore(d.key(), period, e.nowFn()); err != nil {
		e.deadLetters.putBack(d)
		return err
	}

	slog.Info("[Engine] Dead letter requeued", "id", id, "bucket", d.BucketID)
	return nil
}

// SweepRetention deletes documents whose period ended more than
// retention_days ago.
func (e *Engine) SweepRetention(ctx context.Context) (int64, error) {
	days := e.RuntimeConfig().RetentionDays
	cutoff := e.nowFn().UTC().AddDate(0, 0, -days)

	deleted, err := e.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	e.metrics.retentionDeleted.Add(float64(deleted))
	if deleted > 0 {
		slog.Info("[Engine] Retention sweep removed aggregates",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return deleted, nil
}

func (e *Engine) readHistory(ctx context.Context, group aggregation.BucketKey, period aggregation.PeriodKey) ([]*v1.SalesEvent, error) {
	readCtx, cancel := context.WithTimeout(ctx, e.opts.ReadTimeout)
	defer cancel()

	history, err := e.source.GetEventsInRange(readCtx, group.SellerID, period.Start, period.End)
	if err != nil {
		return nil, &coreerrors.TransientStoreError{Op: "read history", Bucket: group.String(), Err: err}
	}
	return history, nil
}

// buildSellerDocuments builds the seller document and one document per
// product present in the history.
func (e *Engine) buildSellerDocuments(group aggregation.BucketKey, period aggregation.PeriodKey, history []*v1.SalesEvent, now time.Time) ([]aggregation.SalesAggregate, error) {
	seller, err := e.buildDocument(group, period, history, now)
	if err != nil {
		return nil, err
	}

	docs := []aggregation.SalesAggregate{seller}
	for _, productID := range aggregation.ProductIDs(history) {
		key := group
		key.ProductID = productID
		doc, err := e.buildDocument(key, period, aggregation.ForProduct(history, productID), now)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// buildDocument wraps BuildAggregate so that any failure, including a panic,
// surfaces as a PermanentComputationError.
func (e *Engine) buildDocument(key aggregation.BucketKey, period aggregation.PeriodKey, history []*v1.SalesEvent, now time.Time) (doc aggregation.SalesAggregate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &coreerrors.PermanentComputationError{
				Bucket:     key.String(),
				EventCount: len(history),
				Err:        fmt.Errorf("panic: %v", r),
			}
		}
	}()

	doc, err = aggregation.BuildAggregate(e.calc, key, period, history, now)
	if err != nil {
		return aggregation.SalesAggregate{}, &coreerrors.PermanentComputationError{
			Bucket:     key.String(),
			EventCount: len(history),
			Err:        err,
		}
	}
	return doc, nil
}

// persist upserts the document and writes it through to the cache. A cache
// failure is logged only; the store is the source of truth.
func (e *Engine) persist(ctx context.Context, doc aggregation.SalesAggregate) error {
	upsertCtx, cancel := context.WithTimeout(ctx, e.opts.UpsertTimeout)
	defer cancel()

	if err := e.store.Upsert(upsertCtx, doc); err != nil {
		return &coreerrors.TransientStoreError{Op: "upsert", Bucket: doc.ID, Err: err}
	}
	e.metrics.documentsWritten.Inc()

	if err := e.cache.Set(upsertCtx, doc); err != nil {
		slog.Warn("[Engine] Cache write-through failed", "bucket", doc.ID, "error", err)
	}
	return nil
}
