package ingestion

import (
	"sync"

	"golang.org/x/time/rate"
)

// SellerLimiter hands out one token bucket per seller.
type SellerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewSellerLimiter allows perSecond events per seller with the given burst.
// A non-positive perSecond disables limiting.
func NewSellerLimiter(perSecond float64, burst int) *SellerLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &SellerLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Allow reports whether the seller may submit another event now.
func (l *SellerLimiter) Allow(sellerID string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}
	return l.get(sellerID).Allow()
}

func (l *SellerLimiter) get(sellerID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[sellerID]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters[sellerID] = limiter
	return limiter
}
