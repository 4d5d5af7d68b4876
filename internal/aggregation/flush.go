package aggregation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
	coreerrors "github.com/craftmarket/salesagg/internal/core/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FlushResult summarizes one flush cycle.
type FlushResult struct {
	CycleID      string
	Selected     int
	Documents    int
	Completed    int
	Retried      int
	Failed       int
	DeadLettered int
	Duration     time.Duration
}

// flushGroup is the set of selected identities that share one history read.
type flushGroup struct {
	key     aggregation.BucketKey
	period  aggregation.PeriodKey
	updates []PendingUpdate
}

// plannedDocument is a document to upsert and the identities waiting on it.
type plannedDocument struct {
	doc    aggregation.SalesAggregate
	owners []aggregation.BucketKey
	err    error
}

// groupPlan is the outcome of reading and computing one group.
type groupPlan struct {
	docs     []*plannedDocument
	failures map[aggregation.BucketKey]error
}

// FlushOnce runs one bounded flush cycle. It returns ok=false without doing
// anything if another cycle is still running.
func (e *Engine) FlushOnce(ctx context.Context) (FlushResult, bool) {
	if !e.flushing.CompareAndSwap(false, true) {
		return FlushResult{}, false
	}
	defer e.flushing.Store(false)

	return e.flush(ctx, e.RuntimeConfig().BatchSize), true
}

func (e *Engine) flush(ctx context.Context, batchSize int) FlushResult {
	started := time.Now()
	result := FlushResult{CycleID: uuid.NewString()}

	batch := e.queue.Select(batchSize, e.nowFn())
	result.Selected = len(batch)
	if len(batch) == 0 {
		return result
	}

	groups := groupUpdates(batch)
	plans := make([]groupPlan, len(groups))

	workers := e.opts.WorkerCount
	if workers > batchSize {
		workers = batchSize
	}

	var reads errgroup.Group
	reads.SetLimit(workers)
	for i, g := range groups {
		reads.Go(func() error {
			plans[i] = e.planGroup(ctx, g)
			return nil
		})
	}
	_ = reads.Wait()

	var docs []*plannedDocument
	for _, p := range plans {
		docs = append(docs, p.docs...)
	}
	result.Documents = len(docs)

	var writes errgroup.Group
	writes.SetLimit(workers)
	for _, d := range docs {
		writes.Go(func() error {
			d.err = e.persist(ctx, d.doc)
			return nil
		})
	}
	_ = writes.Wait()

	writeErrs := make(map[aggregation.BucketKey]error)
	for _, d := range docs {
		if d.err == nil {
			continue
		}
		for _, owner := range d.owners {
			if _, seen := writeErrs[owner]; !seen {
				writeErrs[owner] = d.err
			}
		}
	}

	now := e.nowFn()
	for gi, g := range groups {
		for _, u := range g.updates {
			err := plans[gi].failures[u.Key]
			if err == nil {
				err = writeErrs[u.Key]
			}
			e.settle(u, err, now, result.CycleID, &result)
		}
	}

	result.Duration = time.Since(started)
	e.metrics.flushDuration.Observe(result.Duration.Seconds())

	slog.Info("[Flush] Cycle complete",
		"cycle_id", result.CycleID,
		"selected", result.Selected,
		"documents", result.Documents,
		"completed", result.Completed,
		"retried", result.Retried,
		"failed", result.Failed,
		"dead_lettered", result.DeadLettered,
		"duration", result.Duration,
	)
	return result
}

// settle applies the outcome of one identity to the queue.
func (e *Engine) settle(u PendingUpdate, err error, now time.Time, cycleID string, result *FlushResult) {
	if err == nil {
		e.queue.Complete(u.Key, u.Version)
		e.metrics.flushedBuckets.Inc()
		result.Completed++
		return
	}

	var permanent *coreerrors.PermanentComputationError
	if !errors.As(err, &permanent) {
		e.queue.Retry(u.Key, err)
		e.metrics.flushFailures.WithLabelValues(failureTransient).Inc()
		result.Retried++
		slog.Warn("[Flush] Bucket left queued after store failure",
			"cycle_id", cycleID,
			"bucket", u.Key.String(),
			"seller_id", u.Key.SellerID,
			"granularity", u.Key.Granularity,
			"period_key", u.Key.PeriodKey,
			"kind", failureTransient,
			"error", err,
		)
		return
	}

	e.metrics.flushFailures.WithLabelValues(failurePermanent).Inc()
	result.Failed++
	entry, dead := e.queue.Fail(u.Key, err, now)
	if !dead {
		slog.Error("[Flush] Bucket computation failed, backing off",
			"cycle_id", cycleID,
			"bucket", u.Key.String(),
			"seller_id", u.Key.SellerID,
			"granularity", u.Key.Granularity,
			"period_key", u.Key.PeriodKey,
			"kind", failurePermanent,
			"attempts", entry.Attempts,
			"next_attempt_at", entry.NextAttemptAt,
			"error", err,
		)
		return
	}

	d := e.deadLetters.Add(entry, now)
	e.metrics.deadLettered.Inc()
	result.DeadLettered++
	slog.Error("[Flush] Bucket moved to dead letters",
		"cycle_id", cycleID,
		"dead_letter_id", d.ID,
		"bucket", u.Key.String(),
		"attempts", entry.Attempts,
		"error", err,
	)
}

// planGroup reads the group's history once and builds every document its
// identities need. Identities that fail are recorded in failures and
// contribute no documents.
func (e *Engine) planGroup(ctx context.Context, g flushGroup) groupPlan {
	plan := groupPlan{failures: make(map[aggregation.BucketKey]error)}

	history, err := e.readHistory(ctx, g.key, g.period)
	if err != nil {
		for _, u := range g.updates {
			plan.failures[u.Key] = err
		}
		return plan
	}

	now := e.nowFn()
	byID := make(map[string]*plannedDocument)
	for _, u := range g.updates {
		var (
			docs []aggregation.SalesAggregate
			err  error
		)
		if u.Key.IsSellerLevel() {
			docs, err = e.buildSellerDocuments(u.Key, g.period, history, now)
		} else {
			var doc aggregation.SalesAggregate
			doc, err = e.buildDocument(u.Key, g.period, aggregation.ForProduct(history, u.Key.ProductID), now)
			docs = []aggregation.SalesAggregate{doc}
		}
		if err != nil {
			plan.failures[u.Key] = err
			continue
		}

		for _, doc := range docs {
			if planned, ok := byID[doc.ID]; ok {
				planned.owners = append(planned.owners, u.Key)
				continue
			}
			planned := &plannedDocument{doc: doc, owners: []aggregation.BucketKey{u.Key}}
			byID[doc.ID] = planned
			plan.docs = append(plan.docs, planned)
		}
	}
	return plan
}

// groupUpdates buckets the batch by (seller, granularity, period), keeping
// groups and their members in a stable order.
func groupUpdates(batch []PendingUpdate) []flushGroup {
	index := make(map[aggregation.BucketKey]int)
	var groups []flushGroup
	for _, u := range batch {
		key := u.Key.Group()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, flushGroup{key: key, period: u.Period})
		}
		groups[i].updates = append(groups[i].updates, u)
	}
	for i := range groups {
		sort.SliceStable(groups[i].updates, func(a, b int) bool {
			return groups[i].updates[a].Key.ProductID < groups[i].updates[b].Key.ProductID
		})
	}
	return groups
}
