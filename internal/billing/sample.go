package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// SampleRecords returns reference bills used by the simulate command and tests,
// keyed by a short label.
func SampleRecords() map[string]Record {
	return map[string]Record{
		"medium": SampleMedium(),
		"high":   SampleHigh(),
		"solar":  SampleSolar(),
	}
}

// SampleMedium is a 280 kWh two-month bill of a resident household.
func SampleMedium() Record {
	return Record{
		Customer: Customer{Class: CustomerResident, POD: "IT001E12345678", Meter: MeterMultiSlot},
		Supply:   Supply{PowerKW: dec(3), Voltage: VoltageLow, Market: MarketFree},
		Consumption: Consumption{
			Period:   Period{Start: NewDate(2024, time.November, 1), End: NewDate(2024, time.December, 31)},
			TotalKWh: dec(280),
			F1KWh:    dec(120),
			F2KWh:    dec(100),
			F3KWh:    dec(60),
		},
		Costs: CostDetail{
			Energy:     EnergyCost{Total: dec(45.5), Fixed: dec(6), VariablePerKWh: dec(0.141), CommodityPrice: dec(0.12), SpreadPerKWh: dec(0.035)},
			Network:    NetworkCost{Total: dec(12.8), FixedPerYear: dec(15.87), PowerPerKWYear: dec(14.63), EnergyPerKWh: dec(0.0124)},
			System:     SystemCharges{Total: dec(4.1), ASOSPerKWh: dec(0.014), ARIMPerKWh: dec(0.0006)},
			Taxes:      Taxes{Total: dec(8.5), Excise: dec(2.3), VATPercent: dec(10)},
			LicenseFee: dec(9),
		},
	}
}

// SampleHigh is a 420 kWh bill on a two-slot meter under gradual protection.
func SampleHigh() Record {
	return Record{
		Customer: Customer{Class: CustomerResident, POD: "IT001E87654321", Meter: MeterTwoSlot},
		Supply:   Supply{PowerKW: dec(4.5), Voltage: VoltageLow, Market: MarketGradual},
		Consumption: Consumption{
			Period:   Period{Start: NewDate(2024, time.October, 1), End: NewDate(2024, time.November, 30)},
			TotalKWh: dec(420),
			F1KWh:    dec(180),
			F2KWh:    dec(140),
			F3KWh:    dec(100),
		},
		Costs: CostDetail{
			Energy:     EnergyCost{Total: dec(68.2), Fixed: dec(8.5), VariablePerKWh: dec(0.142), CommodityPrice: dec(0.115), SpreadPerKWh: dec(0.038)},
			Network:    NetworkCost{Total: dec(18.5), FixedPerYear: dec(15.87), PowerPerKWYear: dec(14.63), EnergyPerKWh: dec(0.0124)},
			System:     SystemCharges{Total: dec(6.1), ASOSPerKWh: dec(0.014), ARIMPerKWh: dec(0.0006)},
			Taxes:      Taxes{Total: dec(12.8), Excise: dec(3.5), VATPercent: dec(10)},
			LicenseFee: dec(9),
		},
	}
}

// SampleSolar is a bill of a household with a PV system under net metering.
func SampleSolar() Record {
	return Record{
		Customer: Customer{Class: CustomerResident, POD: "IT001E55555555", Meter: MeterMultiSlot},
		Supply:   Supply{PowerKW: dec(6), Voltage: VoltageLow, Market: MarketFree},
		Consumption: Consumption{
			Period:   Period{Start: NewDate(2024, time.September, 1), End: NewDate(2024, time.October, 31)},
			TotalKWh: dec(320),
			F1KWh:    dec(100),
			F2KWh:    dec(120),
			F3KWh:    dec(100),
		},
		Costs: CostDetail{
			Energy:  EnergyCost{Total: dec(38.5), Fixed: dec(7), VariablePerKWh: dec(0.098), CommodityPrice: dec(0.105), SpreadPerKWh: dec(0.025)},
			Network: NetworkCost{Total: dec(16.2), FixedPerYear: dec(15.87), PowerPerKWYear: dec(14.63), EnergyPerKWh: dec(0.0124)},
			System:  SystemCharges{Total: dec(4.7), ASOSPerKWh: dec(0.014), ARIMPerKWh: dec(0.0006)},
			Taxes:   Taxes{Total: dec(8.2), Excise: dec(2.1), VATPercent: dec(10)},
		},
		SelfProduction: SelfProduction{HasPV: true, FedInKWh: dec(180), NetMetering: true},
	}
}
