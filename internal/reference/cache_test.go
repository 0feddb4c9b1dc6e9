package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-advisor/internal/billing"
)

type countingSource struct {
	inner PriceSource
	calls int
	err   error
}

func (c *countingSource) CommodityPrices(ctx context.Context, from, to billing.Date) ([]PricePoint, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.CommodityPrices(ctx, from, to)
}

func TestCachedPricesServesInsideWindow(t *testing.T) {
	src := &countingSource{inner: NewStatic(nil)}
	cache := NewCachedPrices(src, 365*24*time.Hour, noopLogger())

	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Refresh(context.Background(), now))
	assert.Equal(t, 1, src.calls)
	assert.False(t, cache.LastRefresh().IsZero())

	points, err := cache.CommodityPrices(context.Background(), day(2024, time.November, 1), day(2024, time.December, 31))
	require.NoError(t, err)
	assert.Len(t, points, 2)
	assert.Equal(t, 1, src.calls, "request inside window must not hit the source")

	_, err = cache.CommodityPrices(context.Background(), day(2023, time.January, 1), day(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedPricesDelegatesBeforeRefresh(t *testing.T) {
	src := &countingSource{inner: NewStatic(nil)}
	cache := NewCachedPrices(src, 0, noopLogger())

	_, err := cache.CommodityPrices(context.Background(), day(2024, time.January, 1), day(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestCachedPricesRefreshError(t *testing.T) {
	boom := errors.New("boom")
	cache := NewCachedPrices(&countingSource{err: boom}, time.Hour, noopLogger())
	err := cache.Refresh(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
}
