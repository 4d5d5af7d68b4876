package aggregation

import (
	"sort"
	"sync"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	coreerrors "github.com/craftmarket/salesagg/internal/core/errors"
)

// Pending update states.
const (
	StateQueued   = "QUEUED"
	StateFlushing = "FLUSHING"
)

// PendingUpdate is a copy of one queue entry. The queue never hands out its
// internal pointers.
type PendingUpdate struct {
	Key           aggregation.BucketKey
	Period        aggregation.PeriodKey
	LastEventID   string
	EventCount    int
	Version       uint64
	Attempts      int
	EnqueuedAt    time.Time
	NextAttemptAt time.Time
	LastError     string
	State         string
}

// RetryPolicy bounds how often a bucket whose computation fails is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Backoff returns the delay before retry number attempt (1-based):
// BaseDelay doubled per attempt, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// Queue is the set of buckets awaiting recomputation. Each bucket identity
// appears at most once no matter how many events touch it.
//
// A bucket is QUEUED until Select hands it to a flush, then FLUSHING until
// Complete, Retry or Fail settles it. The version counter detects events that
// arrive while a bucket is being flushed.
type Queue struct {
	mu         sync.Mutex
	entries    map[aggregation.BucketKey]*PendingUpdate
	maxPending int
	retry      RetryPolicy
}

// NewQueue creates a queue holding at most maxPending identities (0 = unbounded).
func NewQueue(maxPending int, retry RetryPolicy) *Queue {
	return &Queue{
		entries:    make(map[aggregation.BucketKey]*PendingUpdate),
		maxPending: maxPending,
		retry:      retry,
	}
}

// Identities returns the bucket keys an event touches: one seller-level key
// per period and, when the event names a product, one product-level key per period.
func Identities(evt *v1.SalesEvent, periods []aggregation.PeriodKey) []aggregation.BucketKey {
	keys := make([]aggregation.BucketKey, 0, 2*len(periods))
	for _, p := range periods {
		seller := aggregation.BucketKey{SellerID: evt.SellerID, Granularity: p.Granularity, PeriodKey: p.Key}
		keys = append(keys, seller)
		if evt.ProductID != "" {
			product := seller
			product.ProductID = evt.ProductID
			keys = append(keys, product)
		}
	}
	return keys
}

// Enqueue marks every bucket the event touches as pending. If the new
// identities would push the queue past its high-water mark nothing is
// recorded and ErrBackpressure is returned.
func (q *Queue) Enqueue(evt *v1.SalesEvent, periods []aggregation.PeriodKey, now time.Time) error {
	keys := Identities(evt, periods)
	byGranularity := make(map[aggregation.Granularity]aggregation.PeriodKey, len(periods))
	for _, p := range periods {
		byGranularity[p.Granularity] = p
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxPending > 0 {
		added := 0
		for _, k := range keys {
			if _, ok := q.entries[k]; !ok {
				added++
			}
		}
		if len(q.entries)+added > q.maxPending {
			return coreerrors.ErrBackpressure
		}
	}

	for _, k := range keys {
		entry, ok := q.entries[k]
		if !ok {
			entry = &PendingUpdate{
				Key:        k,
				Period:     byGranularity[k.Granularity],
				EnqueuedAt: now,
				State:      StateQueued,
			}
			q.entries[k] = entry
		}
		entry.LastEventID = evt.EventID
		entry.EventCount++
		entry.Version++
	}
	return nil
}

// Restore puts a bucket back in the queue with a fresh retry budget.
// Used when an operator requeues a dead letter and after an on-demand
// recompute persists a document.
func (q *Queue) Restore(key aggregation.BucketKey, period aggregation.PeriodKey, now time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if entry, ok := q.entries[key]; ok {
		entry.Version++
		entry.Attempts = 0
		entry.NextAttemptAt = time.Time{}
		return nil
	}
	if q.maxPending > 0 && len(q.entries) >= q.maxPending {
		return coreerrors.ErrBackpressure
	}
	q.entries[key] = &PendingUpdate{
		Key:        key,
		Period:     period,
		EnqueuedAt: now,
		Version:    1,
		State:      StateQueued,
	}
	return nil
}

// Select hands out up to n due buckets, oldest first, and marks them FLUSHING.
func (q *Queue) Select(n int, now time.Time) []PendingUpdate {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	due := make([]*PendingUpdate, 0, len(q.entries))
	for _, entry := range q.entries {
		if entry.State != StateQueued || entry.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, entry)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].EnqueuedAt.Equal(due[j].EnqueuedAt) {
			return due[i].EnqueuedAt.Before(due[j].EnqueuedAt)
		}
		return due[i].Key.String() < due[j].Key.String()
	})
	if len(due) > n {
		due = due[:n]
	}

	out := make([]PendingUpdate, len(due))
	for i, entry := range due {
		entry.State = StateFlushing
		out[i] = *entry
	}
	return out
}

// Complete settles a successful flush. The bucket is removed only if no event
// touched it since Select; otherwise it goes back to QUEUED.
func (q *Queue) Complete(key aggregation.BucketKey, version uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[key]
	if !ok {
		return
	}
	if entry.Version == version {
		delete(q.entries, key)
		return
	}
	entry.State = StateQueued
	entry.Attempts = 0
	entry.NextAttemptAt = time.Time{}
	entry.LastError = ""
}

// Retry returns a bucket to QUEUED after a transient failure. It is due again
// on the next cycle and its retry budget is untouched.
func (q *Queue) Retry(key aggregation.BucketKey, cause error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if entry, ok := q.entries[key]; ok {
		entry.State = StateQueued
		entry.LastError = cause.Error()
	}
}

// Fail records a computation failure. The bucket is rescheduled with
// exponential backoff until MaxAttempts is reached; then it is removed and
// returned with dead=true so the caller can dead-letter it.
func (q *Queue) Fail(key aggregation.BucketKey, cause error, now time.Time) (PendingUpdate, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[key]
	if !ok {
		return PendingUpdate{}, false
	}
	entry.Attempts++
	entry.LastError = cause.Error()

	if q.retry.MaxAttempts > 0 && entry.Attempts >= q.retry.MaxAttempts {
		delete(q.entries, key)
		return *entry, true
	}

	entry.State = StateQueued
	entry.NextAttemptAt = now.Add(q.retry.Backoff(entry.Attempts))
	return *entry, false
}

// Len returns the number of pending identities, including those being flushed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot returns a copy of every entry ordered by enqueue time.
func (q *Queue) Snapshot() []PendingUpdate {
	q.mu.Lock()
	out := make([]PendingUpdate, 0, len(q.entries))
	for _, entry := range q.entries {
		out = append(out, *entry)
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnqueuedAt.Equal(out[j].EnqueuedAt) {
			return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
