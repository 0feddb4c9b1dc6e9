// Package reference supplies the tariff constants and commodity prices the
// engines benchmark a bill against.
package reference

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
)

var thousand = decimal.NewFromInt(1000)

// NetworkTariffs are the regulated transport and metering unit rates.
type NetworkTariffs struct {
	FixedPerYear   decimal.Decimal `json:"quota_fissa_euro_anno"`
	PowerPerKWYear decimal.Decimal `json:"quota_potenza_euro_kw_anno"`
	EnergyPerKWh   decimal.Decimal `json:"quota_energia_euro_kwh"`
	Validity       billing.Period  `json:"periodo_validita"`
}

// SystemCharges are the general system charge unit rates.
type SystemCharges struct {
	ASOSPerKWh   decimal.Decimal `json:"ASOS_euro_kwh"`
	ARIMPerKWh   decimal.Decimal `json:"ARIM_euro_kwh"`
	FixedPerYear decimal.Decimal `json:"quota_fissa_euro_anno"`
	Validity     billing.Period  `json:"periodo_validita"`
}

// PerKWh sums the variable components.
func (s SystemCharges) PerKWh() decimal.Decimal {
	return s.ASOSPerKWh.Add(s.ARIMPerKWh)
}

// PricePoint is a dated wholesale (PUN) price.
type PricePoint struct {
	Date      billing.Date    `json:"data"`
	EURPerKWh decimal.Decimal `json:"PUN_euro_kwh"`
}

// EURPerMWh expresses the price per MWh.
func (p PricePoint) EURPerMWh() decimal.Decimal {
	return p.EURPerKWh.Mul(thousand)
}

// PointFromMWh builds a point from a price quoted in EUR/MWh.
func PointFromMWh(date billing.Date, eurPerMWh decimal.Decimal) PricePoint {
	return PricePoint{Date: date, EURPerKWh: eurPerMWh.Div(thousand)}
}

// Data is one snapshot of reference values for a date range.
type Data struct {
	Network NetworkTariffs `json:"Tariffe_Trasporto"`
	System  SystemCharges  `json:"Oneri_Sistema"`
	Prices  []PricePoint   `json:"Prezzi_Materia_Prima"`
}

// AveragePrice returns the mean commodity price of the snapshot. A nil
// snapshot or an empty price list yields the fallback.
func (d *Data) AveragePrice(fallback decimal.Decimal) decimal.Decimal {
	if d == nil {
		return fallback
	}
	return AveragePrice(d.Prices, fallback)
}

// PriceSource yields dated commodity prices within [from, to], both ends
// included. An empty range is not an error.
type PriceSource interface {
	CommodityPrices(ctx context.Context, from, to billing.Date) ([]PricePoint, error)
}

// Provider exposes each reference sub-fetch plus the combined snapshot.
type Provider interface {
	PriceSource
	NetworkTariffs(ctx context.Context, on billing.Date) (NetworkTariffs, error)
	SystemCharges(ctx context.Context, on billing.Date) (SystemCharges, error)
	ReferenceData(ctx context.Context, from, to billing.Date) (*Data, error)
}

// AveragePrice is the arithmetic mean of the points, or fallback when empty.
func AveragePrice(points []PricePoint, fallback decimal.Decimal) decimal.Decimal {
	if len(points) == 0 {
		return fallback
	}
	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.EURPerKWh)
	}
	return sum.Div(decimal.NewFromInt(int64(len(points))))
}

// NearestPrice returns the price dated closest to the day, or fallback when
// there are no points. Ties resolve to the earlier point.
func NearestPrice(day billing.Date, points []PricePoint, fallback decimal.Decimal) decimal.Decimal {
	if len(points) == 0 {
		return fallback
	}
	best := points[0]
	bestGap := absDuration(day.Sub(best.Date.Time))
	for _, p := range points[1:] {
		gap := absDuration(day.Sub(p.Date.Time))
		if gap < bestGap || (gap == bestGap && p.Date.Before(best.Date.Time)) {
			best, bestGap = p, gap
		}
	}
	return best.EURPerKWh
}

// FilterRange keeps the points inside [from, to] ordered by date.
func FilterRange(points []PricePoint, from, to billing.Date) []PricePoint {
	window := billing.Period{Start: from, End: to}
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if window.Contains(p.Date) {
			out = append(out, p)
		}
	}
	SortPoints(out)
	return out
}

// SortPoints orders points by date, oldest first.
func SortPoints(points []PricePoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date.Time)
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
