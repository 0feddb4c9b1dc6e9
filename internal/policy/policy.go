// Package policy holds the calibration constants shared by the cost, recommendation
// and offer engines. Values are loaded from the "policy" config section; Default
// documents the shipped calibration.
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Policy is the full set of tunable assumptions.
type Policy struct {
	Market     Market     `mapstructure:"market"`
	Power      Power      `mapstructure:"power"`
	Behavior   Behavior   `mapstructure:"behavior"`
	Efficiency Efficiency `mapstructure:"efficiency"`
	SelfProd   SelfProd   `mapstructure:"self_production"`
	Offers     Offers     `mapstructure:"offers"`
}

// Market covers wholesale price assumptions.
type Market struct {
	// DispatchingPerKWh is the grid dispatching cost added on top of PUN.
	DispatchingPerKWh decimal.Decimal `mapstructure:"dispatching_eur_kwh"`
	// FallbackCommodityPerKWh replaces the PUN average when no prices are available.
	FallbackCommodityPerKWh decimal.Decimal `mapstructure:"fallback_commodity_eur_kwh"`
	// CompetitiveSpreadPerKWh is the spread of a competitive free-market offer.
	CompetitiveSpreadPerKWh decimal.Decimal `mapstructure:"competitive_spread_eur_kwh"`
	// SpreadThresholdPerKWh triggers the offer-switch advice.
	SpreadThresholdPerKWh decimal.Decimal `mapstructure:"spread_threshold_eur_kwh"`
	// OverpricePct is the tolerated excess over the competitive benchmark.
	OverpricePct decimal.Decimal `mapstructure:"overprice_pct"`
	// HighPrioritySaving promotes an offer switch to high priority.
	HighPrioritySaving decimal.Decimal `mapstructure:"high_priority_saving_eur"`
}

// Power covers contracted-power sizing.
type Power struct {
	KWhPerKWMonth      decimal.Decimal `mapstructure:"kwh_per_kw_month"`
	OversizeFactor     decimal.Decimal `mapstructure:"oversize_factor"`
	HighPrioritySaving decimal.Decimal `mapstructure:"high_priority_saving_eur"`
	DaysPerMonth       int             `mapstructure:"days_per_month"`
}

// Behavior covers time-slot usage.
type Behavior struct {
	PeakShareHighPct        decimal.Decimal `mapstructure:"peak_share_high_pct"`
	PeakShareLowPct         decimal.Decimal `mapstructure:"peak_share_low_pct"`
	ShiftableFraction       decimal.Decimal `mapstructure:"shiftable_fraction"`
	PeakPremiumPerKWh       decimal.Decimal `mapstructure:"peak_premium_eur_kwh"`
	MultiSlotBenefitPerKWh  decimal.Decimal `mapstructure:"multi_slot_benefit_eur_kwh"`
	ShiftHighPrioritySaving decimal.Decimal `mapstructure:"shift_high_priority_saving_eur"`
}

// Efficiency covers the high-usage check.
type Efficiency struct {
	HighUsageMonthlyKWh decimal.Decimal `mapstructure:"high_usage_monthly_kwh"`
	TargetMonthlyKWh    decimal.Decimal `mapstructure:"target_monthly_kwh"`
	BaselineMonthlyKWh  decimal.Decimal `mapstructure:"baseline_monthly_kwh"`
	BlendedCostPerKWh   decimal.Decimal `mapstructure:"blended_cost_eur_kwh"`
	DaysPerMonth        int             `mapstructure:"days_per_month"`
}

// SelfProd covers photovoltaic and storage assumptions.
type SelfProd struct {
	FedInShareThreshold     decimal.Decimal `mapstructure:"fed_in_share_threshold"`
	StorableFraction        decimal.Decimal `mapstructure:"storable_fraction"`
	RetailPricePerKWh       decimal.Decimal `mapstructure:"retail_price_eur_kwh"`
	NetMeteringPerKWh       decimal.Decimal `mapstructure:"net_metering_eur_kwh"`
	StorageHighPrioritySave decimal.Decimal `mapstructure:"storage_high_priority_saving_eur"`
	AnnualKWhThreshold      decimal.Decimal `mapstructure:"annual_kwh_threshold"`
	SelfConsumptionShare    decimal.Decimal `mapstructure:"self_consumption_share"`
	SystemYieldKWh          decimal.Decimal `mapstructure:"system_yield_kwh"`
	SystemSizeKWp           decimal.Decimal `mapstructure:"system_size_kwp"`
	YieldUsableShare        decimal.Decimal `mapstructure:"yield_usable_share"`
}

// Offers covers the comparison engine.
type Offers struct {
	PeakShareMaxPct    decimal.Decimal `mapstructure:"peak_share_max_pct"`
	OffPeakShareMinPct decimal.Decimal `mapstructure:"off_peak_share_min_pct"`
	SignificantSaving  decimal.Decimal `mapstructure:"significant_saving_eur"`
	GoodSaving         decimal.Decimal `mapstructure:"good_saving_eur"`
	LongContractMonths int             `mapstructure:"long_contract_months"`
	RenewableKeywords  []string        `mapstructure:"renewable_keywords"`
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Default returns the shipped calibration.
func Default() Policy {
	return Policy{
		Market: Market{
			DispatchingPerKWh:       d(0.015),
			FallbackCommodityPerKWh: d(0.11),
			CompetitiveSpreadPerKWh: d(0.02),
			SpreadThresholdPerKWh:   d(0.03),
			OverpricePct:            d(15),
			HighPrioritySaving:      d(150),
		},
		Power: Power{
			KWhPerKWMonth:      d(300),
			OversizeFactor:     d(1.5),
			HighPrioritySaving: d(50),
			DaysPerMonth:       30,
		},
		Behavior: Behavior{
			PeakShareHighPct:        d(45),
			PeakShareLowPct:         d(35),
			ShiftableFraction:       d(0.3),
			PeakPremiumPerKWh:       d(0.05),
			MultiSlotBenefitPerKWh:  d(0.015),
			ShiftHighPrioritySaving: d(100),
		},
		Efficiency: Efficiency{
			HighUsageMonthlyKWh: d(400),
			TargetMonthlyKWh:    d(300),
			BaselineMonthlyKWh:  d(250),
			BlendedCostPerKWh:   d(0.05),
			DaysPerMonth:        30,
		},
		SelfProd: SelfProd{
			FedInShareThreshold:     d(0.3),
			StorableFraction:        d(0.5),
			RetailPricePerKWh:       d(0.25),
			NetMeteringPerKWh:       d(0.12),
			StorageHighPrioritySave: d(300),
			AnnualKWhThreshold:      d(2500),
			SelfConsumptionShare:    d(0.4),
			SystemYieldKWh:          d(3500),
			SystemSizeKWp:           d(3),
			YieldUsableShare:        d(0.7),
		},
		Offers: Offers{
			PeakShareMaxPct:    d(45),
			OffPeakShareMinPct: d(30),
			SignificantSaving:  d(200),
			GoodSaving:         d(100),
			LongContractMonths: 24,
			RenewableKeywords:  []string{"green", "rinnovabil", "renewable"},
		},
	}
}

// Validate rejects calibrations that would make the engines divide by zero.
func (p Policy) Validate() error {
	if !p.Power.KWhPerKWMonth.IsPositive() {
		return fmt.Errorf("policy.power.kwh_per_kw_month must be greater than zero")
	}
	if p.Power.DaysPerMonth <= 0 || p.Efficiency.DaysPerMonth <= 0 {
		return fmt.Errorf("policy days_per_month must be greater than zero")
	}
	if p.Market.FallbackCommodityPerKWh.IsNegative() {
		return fmt.Errorf("policy.market.fallback_commodity_eur_kwh cannot be negative")
	}
	if p.Behavior.PeakShareLowPct.GreaterThan(p.Behavior.PeakShareHighPct) {
		return fmt.Errorf("policy.behavior.peak_share_low_pct cannot exceed peak_share_high_pct")
	}
	return nil
}
