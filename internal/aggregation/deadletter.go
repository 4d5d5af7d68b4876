package aggregation

import (
	"sync"
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/google/uuid"
)

const maxDeadLetters = 10000

// DeadLetter is a bucket whose computation kept failing after every retry.
type DeadLetter struct {
	ID          string                  `json:"id"`
	BucketID    string                  `json:"bucket_id"`
	SellerID    string                  `json:"seller_id"`
	ProductID   string                  `json:"product_id,omitempty"`
	Granularity aggregation.Granularity `json:"granularity"`
	PeriodKey   string                  `json:"period_key"`
	Attempts    int                     `json:"attempts"`
	LastEventID string                  `json:"last_event_id,omitempty"`
	LastError   string                  `json:"last_error"`
	FailedAt    time.Time               `json:"failed_at"`

	period aggregation.PeriodKey
}

func (d DeadLetter) key() aggregation.BucketKey {
	return aggregation.BucketKey{
		SellerID:    d.SellerID,
		ProductID:   d.ProductID,
		Granularity: d.Granularity,
		PeriodKey:   d.PeriodKey,
	}
}

// DeadLetterList keeps dead letters in arrival order. When full the oldest is dropped.
type DeadLetterList struct {
	mu    sync.Mutex
	items []DeadLetter
	limit int
}

func NewDeadLetterList(limit int) *DeadLetterList {
	if limit <= 0 {
		limit = maxDeadLetters
	}
	return &DeadLetterList{limit: limit}
}

// Add records an exhausted update and returns the stored entry.
func (l *DeadLetterList) Add(u PendingUpdate, failedAt time.Time) DeadLetter {
	d := DeadLetter{
		ID:          uuid.NewString(),
		BucketID:    u.Key.DocumentID(),
		SellerID:    u.Key.SellerID,
		ProductID:   u.Key.ProductID,
		Granularity: u.Key.Granularity,
		PeriodKey:   u.Key.PeriodKey,
		Attempts:    u.Attempts,
		LastEventID: u.LastEventID,
		LastError:   u.LastError,
		FailedAt:    failedAt.UTC(),
		period:      u.Period,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, d)
	if len(l.items) > l.limit {
		l.items = l.items[len(l.items)-l.limit:]
	}
	return d
}

// List returns a copy of every dead letter, oldest first.
func (l *DeadLetterList) List() []DeadLetter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]DeadLetter(nil), l.items...)
}

// Take removes and returns the dead letter with the given id.
func (l *DeadLetterList) Take(id string) (DeadLetter, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, d := range l.items {
		if d.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return d, true
		}
	}
	return DeadLetter{}, false
}

func (l *DeadLetterList) putBack(d DeadLetter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, d)
}

func (l *DeadLetterList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
