package recommend

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/costs"
	"bill-advisor/internal/policy"
	"bill-advisor/internal/reference"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
	one     = decimal.NewFromInt(1)
)

func priorityAbove(saving, threshold decimal.Decimal) Priority {
	if saving.GreaterThan(threshold) {
		return PriorityHigh
	}
	return PriorityMedium
}

func perMWh(v decimal.Decimal) string {
	return v.Mul(decimal.NewFromInt(1000)).StringFixed(1)
}

// AnalyzeOffer flags a supplier spread or energy price above the
// competitive benchmark.
func AnalyzeOffer(rec billing.Record, ref *reference.Data, pol policy.Policy) Result {
	kwh := rec.Consumption.TotalKWh
	if !kwh.IsPositive() {
		return None()
	}
	m := pol.Market

	current := rec.Costs.Energy.Total.Div(kwh)
	avg := ref.AveragePrice(m.FallbackCommodityPerKWh)
	benchmark := avg.Add(m.CompetitiveSpreadPerKWh).Add(m.DispatchingPerKWh)
	spread := costs.EstimateSupplierMarginPerKWh(rec, avg, pol)
	ceiling := benchmark.Mul(one.Add(m.OverpricePct.Div(hundred)))

	if !spread.GreaterThan(m.SpreadThresholdPerKWh) && !current.GreaterThan(ceiling) {
		return None()
	}

	perKWh := decimal.Max(current.Sub(benchmark), spread.Sub(m.CompetitiveSpreadPerKWh))
	saving := perKWh.Mul(rec.AnnualKWh())
	if !saving.IsPositive() {
		return None()
	}

	action := "Valutare offerte sul Portale Offerte ARERA con spread inferiore a 0.025 €/kWh."
	if rec.Supply.Market == billing.MarketProtected {
		action += " Considerare passaggio al mercato libero."
	}
	return Some(Intervention{
		Category: CategoryOfferSwitch,
		Title:    "Cambio Fornitore e Offerta",
		Description: fmt.Sprintf("L'attuale spread del fornitore (%s €/MWh) è superiore alla media di mercato. "+
			"Un'offerta più competitiva riduce il costo dell'energia.", perMWh(spread)),
		AnnualSaving:  saving,
		Priority:      priorityAbove(saving, m.HighPrioritySaving),
		Complexity:    ComplexityEasy,
		Metric:        fmt.Sprintf("Spread fornitore: %s €/MWh vs. media mercato: %s €/MWh", perMWh(spread), perMWh(m.CompetitiveSpreadPerKWh)),
		SuggestedStep: action,
	})
}

// AnalyzePower flags a contracted power well above what consumption needs.
func AnalyzePower(rec billing.Record, _ *reference.Data, pol policy.Policy) Result {
	adequacy := costs.PowerAdequacy(rec, pol)
	if adequacy.Adequate || !adequacy.PotentialSaving.IsPositive() {
		return None()
	}
	return Some(Intervention{
		Category:      CategoryPowerSizing,
		Title:         "Riduzione Potenza Contrattuale",
		Description:   adequacy.Suggestion,
		AnnualSaving:  adequacy.PotentialSaving,
		Priority:      priorityAbove(adequacy.PotentialSaving, pol.Power.HighPrioritySaving),
		Complexity:    ComplexityEasy,
		Metric:        fmt.Sprintf("Potenza contrattuale: %s kW, suggerita: %s kW", rec.Supply.PowerKW, adequacy.SuggestedKW),
		SuggestedStep: fmt.Sprintf("Richiedere al fornitore la riduzione a %s kW.", adequacy.SuggestedKW),
	})
}

// AnalyzeBehavior looks at the F1 share: heavy peak usage on a multi-slot
// meter suggests shifting load, light peak usage on a single-slot meter
// suggests a two-slot offer.
func AnalyzeBehavior(rec billing.Record, _ *reference.Data, pol policy.Policy) Result {
	if !rec.Consumption.TotalKWh.IsPositive() {
		return None()
	}
	b := pol.Behavior
	profile := costs.SlotProfile(rec)
	meter := rec.Customer.Meter

	switch {
	case profile.F1Pct.GreaterThan(b.PeakShareHighPct) && meter.MultiSlot():
		shifted := rec.Consumption.F1KWh.Mul(b.ShiftableFraction)
		saving := rec.Period().Annualize(shifted.Mul(b.PeakPremiumPerKWh))
		return Some(Intervention{
			Category: CategoryBehavioral,
			Title:    "Ottimizzazione Fasce Orarie",
			Description: fmt.Sprintf("Il %s%% dei consumi avviene in fascia F1 (lun-ven 8-19). "+
				"Spostando parte dei consumi in F23 (sera, notte, weekend) si riducono i costi.", profile.F1Pct.StringFixed(0)),
			AnnualSaving: saving,
			Priority:     priorityAbove(saving, b.ShiftHighPrioritySaving),
			Complexity:   ComplexityMedium,
			Metric: fmt.Sprintf("Consumi F1: %s%%, F2: %s%%, F3: %s%%",
				profile.F1Pct.StringFixed(0), profile.F2Pct.StringFixed(0), profile.F3Pct.StringFixed(0)),
			SuggestedStep: "Programmare lavatrici, lavastoviglie e altri carichi dopo le 19:00 o nel weekend.",
		})
	case profile.F1Pct.LessThan(b.PeakShareLowPct) && meter.SingleSlot():
		saving := rec.AnnualKWh().Mul(b.MultiSlotBenefitPerKWh)
		return Some(Intervention{
			Category: CategoryOfferSwitch,
			Title:    "Passaggio a Offerta Bioraria",
			Description: fmt.Sprintf("Solo il %s%% dei consumi avviene in fascia F1. "+
				"Un'offerta bioraria con prezzo ridotto in F23 potrebbe essere vantaggiosa.", profile.F1Pct.StringFixed(0)),
			AnnualSaving:  saving,
			Priority:      PriorityMedium,
			Complexity:    ComplexityEasy,
			Metric:        "Profilo consumo: " + profile.Label,
			SuggestedStep: "Confrontare offerte biorarie sul Portale Offerte ARERA.",
		})
	}
	return None()
}

// AnalyzeEfficiency flags monthly consumption above the high-usage mark.
func AnalyzeEfficiency(rec billing.Record, _ *reference.Data, pol policy.Policy) Result {
	kwh := rec.Consumption.TotalKWh
	if !kwh.IsPositive() {
		return None()
	}
	e := pol.Efficiency
	monthly := rec.Period().Monthly(kwh, e.DaysPerMonth)
	if !monthly.GreaterThan(e.HighUsageMonthlyKWh) {
		return None()
	}

	unitCost := rec.Costs.Energy.Total.Div(kwh).Add(e.BlendedCostPerKWh)
	saving := monthly.Sub(e.TargetMonthlyKWh).Mul(twelve).Mul(unitCost)
	return Some(Intervention{
		Category: CategoryEfficiency,
		Title:    "Interventi di Efficienza Energetica",
		Description: fmt.Sprintf("Il consumo medio mensile (%s kWh) è superiore alla media nazionale (circa %s kWh).",
			monthly.StringFixed(0), e.BaselineMonthlyKWh.StringFixed(0)),
		AnnualSaving:  saving,
		Priority:      PriorityHigh,
		Complexity:    ComplexityMedium,
		Metric:        fmt.Sprintf("Consumo mensile: %s kWh", monthly.StringFixed(0)),
		SuggestedStep: "Sostituire l'illuminazione con LED, scegliere elettrodomestici ad alta efficienza, migliorare l'isolamento.",
	})
}

// AnalyzeSelfProduction suggests storage to owners of a PV system that feed
// much of their output to the grid, or a PV system to large domestic users.
func AnalyzeSelfProduction(rec billing.Record, _ *reference.Data, pol policy.Policy) Result {
	s := pol.SelfProd
	kwh := rec.Consumption.TotalKWh

	if rec.SelfProduction.HasPV {
		fedIn := rec.SelfProduction.FedInKWh
		if !fedIn.GreaterThan(kwh.Mul(s.FedInShareThreshold)) {
			return None()
		}
		spread := s.RetailPricePerKWh.Sub(s.NetMeteringPerKWh)
		saving := rec.Period().Annualize(fedIn.Mul(s.StorableFraction).Mul(spread))
		if !saving.IsPositive() {
			return None()
		}
		return Some(Intervention{
			Category: CategorySelfProduction,
			Title:    "Sistema di Accumulo (Batteria)",
			Description: fmt.Sprintf("Si stanno immettendo in rete %s kWh. Un sistema di accumulo permetterebbe "+
				"di usare l'energia autoprodotta invece di prelevarla dalla rete.", fedIn.StringFixed(0)),
			AnnualSaving:  saving,
			Priority:      priorityAbove(saving, s.StorageHighPrioritySave),
			Complexity:    ComplexityHard,
			Metric:        fmt.Sprintf("Energia immessa: %s kWh, prelevata: %s kWh", fedIn.StringFixed(0), kwh.StringFixed(0)),
			SuggestedStep: "Valutare un sistema di accumulo per massimizzare l'autoconsumo e le detrazioni fiscali disponibili.",
		})
	}

	annual := rec.AnnualKWh()
	if !annual.GreaterThan(s.AnnualKWhThreshold) || !rec.Customer.Class.Domestic() {
		return None()
	}
	usableYield := s.SystemYieldKWh.Mul(s.YieldUsableShare)
	selfConsumed := decimal.Min(annual.Mul(s.SelfConsumptionShare), usableYield)
	saving := selfConsumed.Mul(s.RetailPricePerKWh)
	return Some(Intervention{
		Category: CategorySelfProduction,
		Title:    "Impianto Fotovoltaico",
		Description: fmt.Sprintf("Con un consumo annuo di circa %s kWh, un impianto fotovoltaico da %s kWp "+
			"potrebbe coprire una parte significativa del fabbisogno.", annual.StringFixed(0), s.SystemSizeKWp),
		AnnualSaving:  saving,
		Priority:      PriorityMedium,
		Complexity:    ComplexityHard,
		Metric:        fmt.Sprintf("Consumo annuo stimato: %s kWh", annual.StringFixed(0)),
		SuggestedStep: "Verificare orientamento e spazio del tetto; richiedere preventivi per un impianto residenziale.",
	})
}
