package repository

import (
	"context"
	"sync"
	"time"

	"tourbook/currency"
)

type RateLister interface {
	ListRates(ctx context.Context) ([]currency.FxRate, error)
}

// RateCache keeps the fx table in memory for ttl. Failed reads are not
// cached.
type RateCache struct {
	next RateLister
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	rates   []currency.FxRate
	fetched time.Time
}

func NewRateCache(next RateLister, ttl time.Duration) *RateCache {
	return &RateCache{next: next, ttl: ttl, now: time.Now}
}

func (c *RateCache) ListRates(ctx context.Context) ([]currency.FxRate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetched.IsZero() && c.now().Sub(c.fetched) < c.ttl {
		return c.rates, nil
	}
	rates, err := c.next.ListRates(ctx)
	if err != nil {
		return nil, err
	}
	c.rates, c.fetched = rates, c.now()
	return rates, nil
}

func (c *RateCache) Invalidate() {
	c.mu.Lock()
	c.fetched = time.Time{}
	c.mu.Unlock()
}
