package offers

import (
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
)

// Scheme names a pricing structure.
type Scheme string

const (
	SchemeFlat        Scheme = "Fissa"
	SchemeIndexLinked Scheme = "Indicizzata"
	SchemeTwoSlot     Scheme = "Bioraria"
	SchemeThreeSlot   Scheme = "Trioraria"
)

// Slotted reports schemes priced per time band.
func (s Scheme) Slotted() bool {
	return s == SchemeTwoSlot || s == SchemeThreeSlot
}

// Pricing is the scheme-specific price of an offer. The set of
// implementations is closed.
type Pricing interface {
	Scheme() Scheme
	// annualEnergyCost prices one year of the given consumption; wholesale is
	// the reference price for index-linked schemes.
	annualEnergyCost(usage annualUsage, wholesale, dispatching decimal.Decimal) decimal.Decimal
}

type annualUsage struct {
	total, f1, f2, f3 decimal.Decimal
}

func usageOf(rec billing.Record) annualUsage {
	p := rec.Period()
	c := rec.Consumption
	return annualUsage{
		total: p.Annualize(c.TotalKWh),
		f1:    p.Annualize(c.F1KWh),
		f2:    p.Annualize(c.F2KWh),
		f3:    p.Annualize(c.F3KWh),
	}
}

// FlatRate is a single fixed price per kWh.
type FlatRate struct {
	PricePerKWh decimal.Decimal
}

func (FlatRate) Scheme() Scheme { return SchemeFlat }

func (p FlatRate) annualEnergyCost(u annualUsage, _, _ decimal.Decimal) decimal.Decimal {
	return u.total.Mul(p.PricePerKWh)
}

// IndexLinked follows the wholesale price plus a fixed spread.
type IndexLinked struct {
	SpreadPerKWh decimal.Decimal
}

func (IndexLinked) Scheme() Scheme { return SchemeIndexLinked }

func (p IndexLinked) annualEnergyCost(u annualUsage, wholesale, dispatching decimal.Decimal) decimal.Decimal {
	return u.total.Mul(wholesale.Add(p.SpreadPerKWh).Add(dispatching))
}

// TwoSlot prices peak (F1) and off-peak (F2+F3) separately.
type TwoSlot struct {
	F1PerKWh  decimal.Decimal
	F23PerKWh decimal.Decimal
}

func (TwoSlot) Scheme() Scheme { return SchemeTwoSlot }

func (p TwoSlot) annualEnergyCost(u annualUsage, _, _ decimal.Decimal) decimal.Decimal {
	return u.f1.Mul(p.F1PerKWh).Add(u.f2.Add(u.f3).Mul(p.F23PerKWh))
}

// ThreeSlot prices each of F1, F2 and F3.
type ThreeSlot struct {
	F1PerKWh decimal.Decimal
	F2PerKWh decimal.Decimal
	F3PerKWh decimal.Decimal
}

func (ThreeSlot) Scheme() Scheme { return SchemeThreeSlot }

func (p ThreeSlot) annualEnergyCost(u annualUsage, _, _ decimal.Decimal) decimal.Decimal {
	return u.f1.Mul(p.F1PerKWh).Add(u.f2.Mul(p.F2PerKWh)).Add(u.f3.Mul(p.F3PerKWh))
}

var (
	_ Pricing = FlatRate{}
	_ Pricing = IndexLinked{}
	_ Pricing = TwoSlot{}
	_ Pricing = ThreeSlot{}
)
