package recommend

import (
	"sort"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/policy"
	"bill-advisor/internal/reference"
)

// Analyzer inspects a bill and optionally proposes one intervention.
type Analyzer func(rec billing.Record, ref *reference.Data, pol policy.Policy) Result

// Engine runs every analyzer and ranks the interventions.
type Engine struct {
	policy    policy.Policy
	analyzers []Analyzer
}

// NewEngine builds an engine with the five standard analyzers.
func NewEngine(pol policy.Policy) *Engine {
	return &Engine{
		policy: pol,
		analyzers: []Analyzer{
			AnalyzeOffer,
			AnalyzePower,
			AnalyzeBehavior,
			AnalyzeEfficiency,
			AnalyzeSelfProduction,
		},
	}
}

// Generate returns the interventions ordered by estimated annual saving,
// highest first. Only an invalid period is an error.
func (e *Engine) Generate(rec billing.Record, ref *reference.Data) ([]Intervention, error) {
	if err := rec.Period().Validate(); err != nil {
		return nil, err
	}
	out := make([]Intervention, 0, len(e.analyzers))
	for _, analyze := range e.analyzers {
		if i, ok := analyze(rec, ref, e.policy).Get(); ok {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].AnnualSaving.GreaterThan(out[b].AnnualSaving)
	})
	return out, nil
}
