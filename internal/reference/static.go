package reference

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
)

// ARERA 2025 Q1 snapshot for domestic low-voltage supplies.
var (
	snapshotNetwork = NetworkTariffs{
		FixedPerYear:   decimal.RequireFromString("15.87"),
		PowerPerKWYear: decimal.RequireFromString("14.63"),
		EnergyPerKWh:   decimal.RequireFromString("0.0124"),
		Validity:       billing.Period{Start: billing.NewDate(2025, time.January, 1), End: billing.NewDate(2025, time.December, 31)},
	}
	snapshotSystem = SystemCharges{
		ASOSPerKWh:   decimal.RequireFromString("0.0140"),
		ARIMPerKWh:   decimal.RequireFromString("0.0006"),
		FixedPerYear: decimal.Zero,
		Validity:     billing.Period{Start: billing.NewDate(2025, time.January, 1), End: billing.NewDate(2025, time.March, 31)},
	}
	// monthly PUN averages, EUR/MWh
	snapshotPUN = []struct {
		year  int
		month time.Month
		mwh   string
	}{
		{2024, time.January, "110.5"},
		{2024, time.February, "95.2"},
		{2024, time.March, "88.7"},
		{2024, time.April, "92.3"},
		{2024, time.May, "98.1"},
		{2024, time.June, "103.4"},
		{2024, time.July, "112.8"},
		{2024, time.August, "118.5"},
		{2024, time.September, "108.2"},
		{2024, time.October, "102.7"},
		{2024, time.November, "115.3"},
		{2024, time.December, "125.6"},
		{2025, time.January, "120.4"},
		{2025, time.February, "110.8"},
		{2025, time.March, "105.2"},
	}
)

// SnapshotNetwork returns the built-in network tariffs.
func SnapshotNetwork() NetworkTariffs { return snapshotNetwork }

// SnapshotSystem returns the built-in system charges.
func SnapshotSystem() SystemCharges { return snapshotSystem }

// SnapshotPrices returns the built-in monthly PUN series.
func SnapshotPrices() []PricePoint {
	points := make([]PricePoint, 0, len(snapshotPUN))
	for _, row := range snapshotPUN {
		points = append(points, PointFromMWh(billing.NewDate(row.year, row.month, 1), decimal.RequireFromString(row.mwh)))
	}
	return points
}

// Static serves a fixed price series from memory.
type Static struct {
	points []PricePoint
}

// NewStatic wraps the points; nil means the built-in snapshot.
func NewStatic(points []PricePoint) *Static {
	if points == nil {
		points = SnapshotPrices()
	}
	cp := append([]PricePoint(nil), points...)
	SortPoints(cp)
	return &Static{points: cp}
}

// CommodityPrices filters the series to [from, to].
func (s *Static) CommodityPrices(_ context.Context, from, to billing.Date) ([]PricePoint, error) {
	return FilterRange(s.points, from, to), nil
}

var _ PriceSource = (*Static)(nil)
