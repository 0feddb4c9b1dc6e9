package offers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/policy"
	"bill-advisor/internal/reference"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Advisory notes attached to a comparison.
const (
	NoteSignificantSaving = "Risparmio significativo rispetto all'offerta attuale"
	NoteGoodSaving        = "Buon risparmio potenziale"
	NoteSlightSaving      = "Lieve risparmio rispetto all'attuale"
	NoteHigherCost        = "Costo superiore all'offerta attuale"
	NoteUnsuitable        = "Potrebbe non essere adatta al tuo profilo di consumo"
	NoteVariablePrice     = "Prezzo variabile: dipende dall'andamento del PUN"
	NoteRenewable         = "Energia da fonti rinnovabili"
)

// Comparison is one offer projected onto the bill.
type Comparison struct {
	Offer      MarketOffer     `json:"offerta"`
	AnnualCost decimal.Decimal `json:"costo_annuo_stimato"`
	Saving     decimal.Decimal `json:"risparmio_vs_attuale"`
	SavingPct  decimal.Decimal `json:"risparmio_percentuale"`
	Suitable   bool            `json:"adatta_profilo"`
	Notes      []string        `json:"note"`
}

// Engine ranks offers for a bill.
type Engine struct {
	policy policy.Policy
}

// NewEngine constructs an offer comparison engine.
func NewEngine(pol policy.Policy) *Engine {
	return &Engine{policy: pol}
}

// Compare evaluates every offer and sorts by saving, highest first. An empty
// catalog yields an empty list.
func (e *Engine) Compare(rec billing.Record, catalog []MarketOffer, ref *reference.Data) ([]Comparison, error) {
	if err := rec.Period().Validate(); err != nil {
		return nil, err
	}

	usage := usageOf(rec)
	wholesale := ref.AveragePrice(e.policy.Market.FallbackCommodityPerKWh)
	dispatching := e.policy.Market.DispatchingPerKWh
	current := CurrentAnnualCost(rec)
	passThrough := OtherAnnualCosts(rec)

	out := make([]Comparison, 0, len(catalog))
	for _, offer := range catalog {
		if offer.Pricing == nil {
			return nil, fmt.Errorf("%w: offer %s has no pricing", ErrUnknownScheme, offer.ID)
		}
		cost := offer.Pricing.annualEnergyCost(usage, wholesale, dispatching).
			Add(offer.MonthlyFee.Mul(twelve)).
			Add(passThrough)
		saving := current.Sub(cost)
		pct := decimal.Zero
		if current.IsPositive() {
			pct = saving.Mul(hundred).Div(current)
		}
		suitable := e.Suitable(offer, rec)
		out = append(out, Comparison{
			Offer:      offer,
			AnnualCost: cost,
			Saving:     saving,
			SavingPct:  pct,
			Suitable:   suitable,
			Notes:      e.notes(offer, saving, suitable),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Saving.GreaterThan(out[j].Saving)
	})
	return out, nil
}

// CurrentAnnualCost annualizes the four cost group totals of the bill.
func CurrentAnnualCost(rec billing.Record) decimal.Decimal {
	return rec.Period().Annualize(rec.Costs.Energy.Total.Add(passThroughTotal(rec)))
}

// OtherAnnualCosts annualizes network, system charges and taxes, which do
// not depend on the supplier.
func OtherAnnualCosts(rec billing.Record) decimal.Decimal {
	return rec.Period().Annualize(passThroughTotal(rec))
}

func passThroughTotal(rec billing.Record) decimal.Decimal {
	c := rec.Costs
	return c.Network.Total.Add(c.System.Total).Add(c.Taxes.Total)
}

// Suitable reports whether a slotted offer fits the bill's time-of-use
// profile. Flat and index-linked offers always fit.
func (e *Engine) Suitable(offer MarketOffer, rec billing.Record) bool {
	c := rec.Consumption
	if !c.TotalKWh.IsPositive() {
		return true
	}
	scheme := offer.Scheme()
	f1 := c.F1KWh.Mul(hundred).Div(c.TotalKWh)
	f3 := c.F3KWh.Mul(hundred).Div(c.TotalKWh)
	if scheme.Slotted() && f1.GreaterThan(e.policy.Offers.PeakShareMaxPct) {
		return false
	}
	if scheme == SchemeThreeSlot && f3.LessThan(e.policy.Offers.OffPeakShareMinPct) {
		return false
	}
	return true
}

func (e *Engine) notes(offer MarketOffer, saving decimal.Decimal, suitable bool) []string {
	p := e.policy.Offers
	notes := []string{}
	switch {
	case saving.GreaterThan(p.SignificantSaving):
		notes = append(notes, NoteSignificantSaving)
	case saving.GreaterThan(p.GoodSaving):
		notes = append(notes, NoteGoodSaving)
	case saving.IsPositive():
		notes = append(notes, NoteSlightSaving)
	case saving.IsNegative():
		notes = append(notes, NoteHigherCost)
	}
	if !suitable {
		notes = append(notes, NoteUnsuitable)
	}
	if offer.Scheme() == SchemeIndexLinked {
		notes = append(notes, NoteVariablePrice)
	}
	if p.LongContractMonths > 0 && offer.DurationMonths >= p.LongContractMonths {
		notes = append(notes, fmt.Sprintf("Vincolo contrattuale di %d mesi", offer.DurationMonths))
	}
	if mentionsAny(offer.Features, p.RenewableKeywords) {
		notes = append(notes, NoteRenewable)
	}
	return notes
}

func mentionsAny(features, keywords []string) bool {
	for _, f := range features {
		lower := strings.ToLower(f)
		for _, k := range keywords {
			if k != "" && strings.Contains(lower, strings.ToLower(k)) {
				return true
			}
		}
	}
	return false
}

// Best keeps the top offers that both save money and fit the profile.
func Best(comparisons []Comparison, limit int) []Comparison {
	out := make([]Comparison, 0, max(limit, 0))
	for _, c := range comparisons {
		if limit > 0 && len(out) == limit {
			break
		}
		if c.Saving.IsPositive() && c.Suitable {
			out = append(out, c)
		}
	}
	return out
}
