package costs

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/policy"
)

// Profile labels.
const (
	ProfileUnknown     = "N/A"
	ProfileBalanced    = "Bilanciato"
	ProfileF1Dominant  = "Prevalenza F1 (giorno feriale)"
	ProfileF3Dominant  = "Prevalenza F3 (notte/weekend)"
	ProfileF23Dominant = "Prevalenza F23 (sera/notte/weekend)"
)

var (
	fifty   = decimal.NewFromInt(50)
	seventy = decimal.NewFromInt(70)
)

// Profile is the time-of-use split of the billed consumption.
type Profile struct {
	F1Pct decimal.Decimal `json:"F1_percentuale"`
	F2Pct decimal.Decimal `json:"F2_percentuale"`
	F3Pct decimal.Decimal `json:"F3_percentuale"`
	Label string          `json:"profilo"`
}

// SlotProfile computes F1/F2/F3 shares of the total.
func SlotProfile(rec billing.Record) Profile {
	c := rec.Consumption
	if !c.TotalKWh.IsPositive() {
		return Profile{Label: ProfileUnknown}
	}
	p := Profile{
		F1Pct: c.F1KWh.Mul(hundred).Div(c.TotalKWh),
		F2Pct: c.F2KWh.Mul(hundred).Div(c.TotalKWh),
		F3Pct: c.F3KWh.Mul(hundred).Div(c.TotalKWh),
		Label: ProfileBalanced,
	}
	switch {
	case p.F1Pct.GreaterThan(fifty):
		p.Label = ProfileF1Dominant
	case p.F3Pct.GreaterThan(fifty):
		p.Label = ProfileF3Dominant
	case p.F2Pct.Add(p.F3Pct).GreaterThan(seventy):
		p.Label = ProfileF23Dominant
	}
	return p
}

// Adequacy is the contracted power assessment.
type Adequacy struct {
	Adequate        bool            `json:"adeguata"`
	SuggestedKW     decimal.Decimal `json:"potenza_suggerita_kw"`
	PotentialSaving decimal.Decimal `json:"risparmio_potenziale_euro_anno"`
	Suggestion      string          `json:"suggerimento,omitempty"`
}

// PowerAdequacy sizes the contract on the average monthly consumption.
// Without consumption the contract cannot be judged and is reported adequate.
func PowerAdequacy(rec billing.Record, pol policy.Policy) Adequacy {
	kwh := rec.Consumption.TotalKWh
	if !kwh.IsPositive() || !pol.Power.KWhPerKWMonth.IsPositive() {
		return Adequacy{Adequate: true}
	}

	monthly := rec.Period().Monthly(kwh, pol.Power.DaysPerMonth)
	suggested := monthly.Div(pol.Power.KWhPerKWMonth).Ceil()
	contracted := rec.Supply.PowerKW

	if !contracted.GreaterThan(suggested.Mul(pol.Power.OversizeFactor)) {
		return Adequacy{Adequate: true, SuggestedKW: suggested}
	}

	fee := rec.Costs.Network.PowerPerKWYear
	return Adequacy{
		Adequate:        false,
		SuggestedKW:     suggested,
		PotentialSaving: contracted.Sub(suggested).Mul(fee),
		Suggestion:      fmt.Sprintf("Potenza contrattuale sovradimensionata. Considerare riduzione a %s kW", suggested),
	}
}
