package exchange

import (
	"context"
	"errors"
	"sync"
	"time"
)

type cachedRate struct {
	rate      Rate
	expiresAt time.Time
}

// CachedRates wraps a RateSource with an in-memory TTL cache keyed by
// normalized "FROM->TO" pair. Concurrent misses for one pair share a single
// upstream call.
type CachedRates struct {
	inner RateSource
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	rates    map[string]cachedRate
	inFlight map[string]chan struct{}
}

// NewCachedRates returns a caching rate source. A non-positive ttl means 12h.
func NewCachedRates(inner RateSource, ttl time.Duration) *CachedRates {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CachedRates{
		inner:    inner,
		ttl:      ttl,
		now:      time.Now,
		rates:    make(map[string]cachedRate),
		inFlight: make(map[string]chan struct{}),
	}
}

// Rate returns a cached rate or fetches a fresh one.
func (c *CachedRates) Rate(ctx context.Context, fromCurrency, toCurrency string) (Rate, error) {
	if c.inner == nil {
		return Rate{}, errors.New("inner rate source is required")
	}
	key := normalizeCurrency(fromCurrency) + "->" + normalizeCurrency(toCurrency)

	for {
		c.mu.Lock()
		if entry, ok := c.rates[key]; ok && c.now().Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.rate, nil
		}
		wait, busy := c.inFlight[key]
		if !busy {
			done := make(chan struct{})
			c.inFlight[key] = done
			c.mu.Unlock()
			return c.fetch(ctx, key, fromCurrency, toCurrency, done)
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return Rate{}, ctx.Err()
		case <-wait:
		}
	}
}

func (c *CachedRates) fetch(ctx context.Context, key, from, to string, done chan struct{}) (Rate, error) {
	rate, err := c.inner.Rate(ctx, from, to)
	if err == nil {
		err = validateRate(rate.Value)
	}

	c.mu.Lock()
	if err == nil {
		c.rates[key] = cachedRate{rate: rate, expiresAt: c.now().Add(c.ttl)}
	}
	delete(c.inFlight, key)
	close(done)
	c.mu.Unlock()

	if err != nil {
		return Rate{}, err
	}
	return rate, nil
}
