// Package recommend runs rule-based analyzers over a bill and ranks the
// resulting savings interventions.
package recommend

import "github.com/shopspring/decimal"

// Category tags the kind of intervention.
type Category string

const (
	CategoryOfferSwitch    Category = "Offerta"
	CategoryPowerSizing    Category = "Potenza"
	CategoryBehavioral     Category = "Comportamento"
	CategoryEfficiency     Category = "Efficienza"
	CategorySelfProduction Category = "Autoproduzione"
)

// Priority is the urgency tier.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
	PriorityLow    Priority = "Bassa"
)

// Complexity is the implementation effort tier.
type Complexity string

const (
	ComplexityEasy   Complexity = "Facile"
	ComplexityMedium Complexity = "Media"
	ComplexityHard   Complexity = "Difficile"
)

// Intervention is one explained savings suggestion.
type Intervention struct {
	Category      Category        `json:"tipo"`
	Title         string          `json:"titolo"`
	Description   string          `json:"descrizione"`
	AnnualSaving  decimal.Decimal `json:"risparmio_stimato_euro_anno"`
	Priority      Priority        `json:"priorita"`
	Complexity    Complexity      `json:"complessita"`
	Metric        string          `json:"metrica_valutata"`
	SuggestedStep string          `json:"azione_suggerita"`
}

// Result is the outcome of one analyzer: an intervention or nothing.
type Result struct {
	intervention Intervention
	present      bool
}

// Some wraps an intervention.
func Some(i Intervention) Result {
	return Result{intervention: i, present: true}
}

// None reports that the analyzer had nothing to suggest.
func None() Result {
	return Result{}
}

// Get unwraps the result.
func (r Result) Get() (Intervention, bool) {
	return r.intervention, r.present
}

// IsNone reports an empty result.
func (r Result) IsNone() bool {
	return !r.present
}
