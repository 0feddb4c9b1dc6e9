package reference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bill-advisor/internal/billing"
)

// CachedPrices keeps the most recent window of a slower source in memory.
// Requests fully inside the window are served locally, the rest delegate.
type CachedPrices struct {
	source   PriceSource
	lookback time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	window  billing.Period
	points  []PricePoint
	loaded  bool
	fetched time.Time
}

// NewCachedPrices wraps source; lookback is the span kept in memory.
func NewCachedPrices(source PriceSource, lookback time.Duration, logger zerolog.Logger) *CachedPrices {
	if lookback <= 0 {
		lookback = 400 * 24 * time.Hour
	}
	return &CachedPrices{
		source:   source,
		lookback: lookback,
		logger:   logger.With().Str("component", "price_cache").Logger(),
	}
}

// Refresh reloads [now-lookback, now]. It matches scheduler.TickFunc.
func (c *CachedPrices) Refresh(ctx context.Context, now time.Time) error {
	window := billing.Period{Start: billing.DateOf(now.Add(-c.lookback)), End: billing.DateOf(now)}
	points, err := c.source.CommodityPrices(ctx, window.Start, window.End)
	if err != nil {
		return fmt.Errorf("refresh price cache: %w", err)
	}
	c.mu.Lock()
	c.window = window
	c.points = points
	c.loaded = true
	c.fetched = time.Now().UTC()
	c.mu.Unlock()

	c.logger.Info().Stringer("from", window.Start).Stringer("to", window.End).Int("points", len(points)).Msg("price cache refreshed")
	return nil
}

// CommodityPrices serves from the snapshot when it covers the request.
func (c *CachedPrices) CommodityPrices(ctx context.Context, from, to billing.Date) ([]PricePoint, error) {
	c.mu.RLock()
	hit := c.loaded && c.window.Contains(from) && c.window.Contains(to)
	var points []PricePoint
	if hit {
		points = FilterRange(c.points, from, to)
	}
	c.mu.RUnlock()

	if hit {
		return points, nil
	}
	return c.source.CommodityPrices(ctx, from, to)
}

// LastRefresh reports when the snapshot was loaded; zero if never.
func (c *CachedPrices) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetched
}

var _ PriceSource = (*CachedPrices)(nil)
