// Package cache keeps recently flushed aggregate documents close to the
// dashboard read path.
package cache

import (
	"context"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
)

// AggregateCache is a write-through cache of aggregate documents keyed by document id.
// Set always overwrites and is used by the flush path. Fill stores the document
// only when the key is absent, so a read-path fill never replaces a newer
// write-through.
type AggregateCache interface {
	Get(ctx context.Context, id string) (*aggregation.SalesAggregate, bool, error)
	Set(ctx context.Context, doc aggregation.SalesAggregate) error
	Fill(ctx context.Context, doc aggregation.SalesAggregate) error
}

// Noop is used when cache.enabled is false.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string) (*aggregation.SalesAggregate, bool, error) {
	return nil, false, nil
}

func (Noop) Set(_ context.Context, _ aggregation.SalesAggregate) error {
	return nil
}

func (Noop) Fill(_ context.Context, _ aggregation.SalesAggregate) error {
	return nil
}
