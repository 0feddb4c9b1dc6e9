package reference

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-advisor/internal/billing"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func day(y int, m time.Month, d int) billing.Date {
	return billing.NewDate(y, m, d)
}

func TestAveragePriceFallsBackWhenEmpty(t *testing.T) {
	fallback := decimal.RequireFromString("0.11")
	assert.True(t, AveragePrice(nil, fallback).Equal(fallback))

	var data *Data
	assert.True(t, data.AveragePrice(fallback).Equal(fallback))
}

func TestAveragePrice(t *testing.T) {
	points := []PricePoint{
		{Date: day(2024, time.November, 1), EURPerKWh: decimal.RequireFromString("0.1153")},
		{Date: day(2024, time.December, 1), EURPerKWh: decimal.RequireFromString("0.1256")},
	}
	got := AveragePrice(points, decimal.Zero)
	assert.Equal(t, "0.12045", got.String())
}

func TestNearestPrice(t *testing.T) {
	points := SnapshotPrices()
	got := NearestPrice(day(2024, time.November, 20), points, decimal.Zero)
	assert.Equal(t, "0.1256", got.String(), "20 Nov is closer to 1 Dec")

	got = NearestPrice(day(2026, time.June, 1), points, decimal.Zero)
	assert.Equal(t, "0.1052", got.String())

	assert.True(t, NearestPrice(day(2024, time.June, 1), nil, decimal.NewFromInt(7)).Equal(decimal.NewFromInt(7)))
}

func TestFilterRangeInclusive(t *testing.T) {
	got := FilterRange(SnapshotPrices(), day(2024, time.November, 1), day(2024, time.December, 1))
	require.Len(t, got, 2)
	assert.Equal(t, "2024-11-01", got[0].Date.String())
	assert.Equal(t, "2024-12-01", got[1].Date.String())
}

func TestPointFromMWh(t *testing.T) {
	p := PointFromMWh(day(2024, time.January, 1), decimal.RequireFromString("110.5"))
	assert.Equal(t, "0.1105", p.EURPerKWh.String())
	assert.Equal(t, "110.5", p.EURPerMWh().String())
}

func TestServiceReferenceData(t *testing.T) {
	svc := NewService(ServiceOptions{}, nil, noopLogger())

	data, err := svc.ReferenceData(context.Background(), day(2024, time.November, 1), day(2024, time.December, 31))
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Len(t, data.Prices, 2)
	assert.Equal(t, "14.63", data.Network.PowerPerKWYear.String())
	assert.Equal(t, "0.0146", data.System.PerKWh().String())
}

func TestServiceEmptyRangeIsNotAnError(t *testing.T) {
	svc := NewService(ServiceOptions{}, nil, noopLogger())

	prices, err := svc.CommodityPrices(context.Background(), day(2030, time.January, 1), day(2030, time.February, 1))
	require.NoError(t, err)
	assert.NotNil(t, prices)
	assert.Empty(t, prices)

	prices, err = svc.CommodityPrices(context.Background(), day(2024, time.February, 1), day(2024, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestServiceOverrides(t *testing.T) {
	network := NetworkTariffs{FixedPerYear: decimal.NewFromInt(20)}
	svc := NewService(ServiceOptions{Network: &network}, NewStatic([]PricePoint{}), noopLogger())

	got, err := svc.NetworkTariffs(context.Background(), day(2025, time.January, 1))
	require.NoError(t, err)
	assert.True(t, got.FixedPerYear.Equal(decimal.NewFromInt(20)))

	data, err := svc.ReferenceData(context.Background(), day(2024, time.January, 1), day(2024, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, data.Prices)
}
