// Package analysis sequences the cost, recommendation and offer engines for a
// single bill and handles everything around them: collaborator fetches,
// partial failures, persistence and savings alerts.
package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/costs"
	"bill-advisor/internal/offers"
	"bill-advisor/internal/recommend"
)

// Collaborator names reported in failures.
const (
	CollaboratorReference = "reference"
	CollaboratorCatalog   = "catalog"
	CollaboratorStorage   = "storage"
	CollaboratorAlerts    = "alerts"
)

// Failure names a collaborator that could not serve the analysis.
type Failure struct {
	Collaborator string `json:"collaboratore"`
	Message      string `json:"messaggio"`
}

// Result is the document produced for one bill. Outputs that depend on a
// failed collaborator are left nil.
type Result struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt time.Time      `json:"creato_il"`
	Record    billing.Record `json:"bolletta"`
	Days      int            `json:"giorni_periodo"`

	Costs         costs.Analysis           `json:"analisi_costi"`
	Profile       costs.Profile            `json:"profilo_consumo"`
	Power         costs.Adequacy           `json:"adeguatezza_potenza"`
	AveragePrice  decimal.Decimal          `json:"pun_medio_euro_kwh"`
	MarginPerKWh  decimal.Decimal          `json:"margine_fornitore_euro_kwh"`
	Interventions []recommend.Intervention `json:"interventi"`
	Offers        []offers.Comparison      `json:"confronto_offerte"`
	BestOffers    []offers.Comparison      `json:"migliori_offerte"`

	// FallbackPrices is set when no commodity price covered the period.
	FallbackPrices bool      `json:"prezzi_di_riserva"`
	Warnings       []string  `json:"avvisi,omitempty"`
	Failures       []Failure `json:"errori,omitempty"`
	Alerted        bool      `json:"avviso_inviato"`
}

// BestSaving is the largest annual saving found by either engine, zero when
// nothing saves money.
func (r *Result) BestSaving() decimal.Decimal {
	best := decimal.Zero
	if len(r.BestOffers) > 0 && r.BestOffers[0].Saving.GreaterThan(best) {
		best = r.BestOffers[0].Saving
	}
	if len(r.Interventions) > 0 && r.Interventions[0].AnnualSaving.GreaterThan(best) {
		best = r.Interventions[0].AnnualSaving
	}
	return best
}

// Failed reports whether the named collaborator failed.
func (r *Result) Failed(collaborator string) bool {
	for _, f := range r.Failures {
		if f.Collaborator == collaborator {
			return true
		}
	}
	return false
}

func (r *Result) fail(collaborator string, err error) {
	r.Failures = append(r.Failures, Failure{Collaborator: collaborator, Message: err.Error()})
}
