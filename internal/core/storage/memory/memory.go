// Package memory holds in-process stores used by tests and by
// database.type=memory deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/core/aggregation"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/shopspring/decimal"
)

type eventKey struct {
	sellerID string
	eventID  string
}

// EventStore is an in-memory storage.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events map[eventKey]v1.SalesEvent
}

// NewEventStore creates an empty event store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[eventKey]v1.SalesEvent)}
}

func (s *EventStore) SaveEvent(_ context.Context, event *v1.SalesEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := eventKey{sellerID: event.SellerID, eventID: event.EventID}
	if _, exists := s.events[key]; exists {
		return storage.ErrDuplicate
	}
	s.events[key] = *event
	return nil
}

func (s *EventStore) GetEventsInRange(ctx context.Context, sellerID string, start, end time.Time) ([]*v1.SalesEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*v1.SalesEvent
	for key, evt := range s.events {
		if key.sellerID != sellerID {
			continue
		}
		if evt.EventTimestamp.Before(start) || !evt.EventTimestamp.Before(end) {
			continue
		}
		copy := evt
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventTimestamp.Equal(out[j].EventTimestamp) {
			return out[i].EventTimestamp.Before(out[j].EventTimestamp)
		}
		return out[i].EventID < out[j].EventID
	})
	return out, nil
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// AggregateStore is an in-memory storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	docs map[string]aggregation.SalesAggregate
}

// NewAggregateStore creates an empty aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{docs: make(map[string]aggregation.SalesAggregate)}
}

func (s *AggregateStore) Upsert(ctx context.Context, doc aggregation.SalesAggregate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[doc.ID] = cloneAggregate(doc)
	return nil
}

func (s *AggregateStore) Get(_ context.Context, id string) (*aggregation.SalesAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := cloneAggregate(doc)
	return &copy, nil
}

func (s *AggregateStore) ListBucket(_ context.Context, sellerID string, g aggregation.Granularity, periodKey string) ([]aggregation.SalesAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []aggregation.SalesAggregate
	for _, doc := range s.docs {
		if doc.SellerID == sellerID && doc.Granularity == g && doc.PeriodKey == periodKey {
			out = append(out, cloneAggregate(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *AggregateStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, doc := range s.docs {
		if doc.PeriodEnd.Before(cutoff) {
			delete(s.docs, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored documents.
func (s *AggregateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func cloneAggregate(doc aggregation.SalesAggregate) aggregation.SalesAggregate {
	if doc.ChannelBreakdown != nil {
		channels := make(map[string]decimal.Decimal, len(doc.ChannelBreakdown))
		for k, v := range doc.ChannelBreakdown {
			channels[k] = v
		}
		doc.ChannelBreakdown = channels
	}
	if doc.TopProducts != nil {
		doc.TopProducts = append([]aggregation.ProductSummary(nil), doc.TopProducts...)
	}
	return doc
}
