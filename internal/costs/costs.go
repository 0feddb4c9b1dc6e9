// Package costs turns a billing record into an annualized, percentage
// normalized cost breakdown.
package costs

import (
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/reference"
)

// Breakdown row labels.
const (
	CategoryEnergy     = "Materia Prima Energia"
	CategoryNetwork    = "Trasporto e Gestione Contatore"
	CategorySystem     = "Oneri di Sistema (ASOS + ARIM)"
	CategoryExcise     = "Accise"
	CategoryVAT        = "IVA"
	CategoryLicenseFee = "Canone RAI"
)

var hundred = decimal.NewFromInt(100)

// BreakdownItem is one cost category of the bill.
type BreakdownItem struct {
	Category       string          `json:"categoria"`
	FixedPerYear   decimal.Decimal `json:"voce_fissa_euro_anno"`
	VariablePerKWh decimal.Decimal `json:"voce_variabile_euro_kwh"`
	PeriodCost     decimal.Decimal `json:"costo_totale_periodo"`
	SharePct       decimal.Decimal `json:"percentuale_sul_totale"`
}

// Analysis is the decomposed bill.
type Analysis struct {
	Breakdown      []BreakdownItem `json:"breakdown"`
	FixedPerYear   decimal.Decimal `json:"totale_costo_fisso_anno"`
	VariablePerKWh decimal.Decimal `json:"totale_costo_variabile_kwh"`
	InvoiceTotal   decimal.Decimal `json:"costo_totale_fattura"`
	AveragePerKWh  decimal.Decimal `json:"costo_medio_kwh"`
}

// Item looks a row up by category.
func (a Analysis) Item(category string) (BreakdownItem, bool) {
	for _, item := range a.Breakdown {
		if item.Category == category {
			return item, true
		}
	}
	return BreakdownItem{}, false
}

// Decompose builds the breakdown from the record's own cost detail. The
// reference snapshot is accepted for cross-checks and may be nil.
func Decompose(rec billing.Record, _ *reference.Data) (Analysis, error) {
	period := rec.Period()
	if err := period.Validate(); err != nil {
		return Analysis{}, err
	}

	detail := rec.Costs
	kwh := rec.Consumption.TotalKWh
	multiplier := period.YearlyMultiplier()

	rows := make([]BreakdownItem, 0, 6)

	energy := detail.Energy
	energyVariable := energy.VariablePerKWh
	if kwh.IsPositive() {
		energyVariable = energy.Total.Sub(energy.Fixed).Div(kwh)
	}
	rows = append(rows, BreakdownItem{
		Category:       CategoryEnergy,
		FixedPerYear:   energy.Fixed.Mul(multiplier),
		VariablePerKWh: energyVariable,
		PeriodCost:     energy.Total,
	})

	network := detail.Network
	rows = append(rows, BreakdownItem{
		Category:       CategoryNetwork,
		FixedPerYear:   network.FixedPerYear.Add(network.PowerPerKWYear.Mul(rec.Supply.PowerKW)),
		VariablePerKWh: network.EnergyPerKWh,
		PeriodCost:     network.Total,
	})

	system := detail.System
	rows = append(rows, BreakdownItem{
		Category:       CategorySystem,
		FixedPerYear:   system.FixedPerYear,
		VariablePerKWh: system.ASOSPerKWh.Add(system.ARIMPerKWh),
		PeriodCost:     system.Total,
	})

	excise := detail.Taxes.Excise
	rows = append(rows, BreakdownItem{
		Category:       CategoryExcise,
		VariablePerKWh: perKWh(excise, kwh),
		PeriodCost:     excise,
	})

	vat := TaxableBase(detail).Mul(detail.Taxes.VATPercent).Div(hundred)
	rows = append(rows, BreakdownItem{
		Category:       CategoryVAT,
		VariablePerKWh: perKWh(vat, kwh),
		PeriodCost:     vat,
	})

	if detail.LicenseFee.IsPositive() {
		rows = append(rows, BreakdownItem{
			Category:     CategoryLicenseFee,
			FixedPerYear: detail.LicenseFee.Mul(multiplier),
			PeriodCost:   detail.LicenseFee,
		})
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.PeriodCost)
	}

	analysis := Analysis{Breakdown: rows, InvoiceTotal: total}
	for i := range rows {
		if total.IsPositive() {
			rows[i].SharePct = rows[i].PeriodCost.Mul(hundred).Div(total)
		} else {
			rows[i].SharePct = decimal.Zero
		}
		analysis.FixedPerYear = analysis.FixedPerYear.Add(rows[i].FixedPerYear)
		analysis.VariablePerKWh = analysis.VariablePerKWh.Add(rows[i].VariablePerKWh)
	}
	analysis.AveragePerKWh = perKWh(total, kwh)

	return analysis, nil
}

// TaxableBase is the VAT base: energy, network, system and excise totals.
// The licence fee is outside the base.
func TaxableBase(detail billing.CostDetail) decimal.Decimal {
	return detail.Energy.Total.
		Add(detail.Network.Total).
		Add(detail.System.Total).
		Add(detail.Taxes.Excise)
}

// EnergyVariablePerKWh is the commodity cost per kWh net of the fixed quota,
// or zero without consumption.
func EnergyVariablePerKWh(rec billing.Record) decimal.Decimal {
	energy := rec.Costs.Energy
	return perKWh(energy.Total.Sub(energy.Fixed), rec.Consumption.TotalKWh)
}

func perKWh(amount, kwh decimal.Decimal) decimal.Decimal {
	if !kwh.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(kwh)
}
