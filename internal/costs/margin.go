package costs

import (
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/policy"
)

// EstimateSupplierMarginPerKWh returns the stated spread when the bill
// carries one, otherwise the energy price left after wholesale and
// dispatching.
func EstimateSupplierMarginPerKWh(rec billing.Record, averageMarketPrice decimal.Decimal, pol policy.Policy) decimal.Decimal {
	stated := rec.Costs.Energy.SpreadPerKWh
	if stated.IsPositive() {
		return stated
	}
	if !rec.Consumption.TotalKWh.IsPositive() {
		return decimal.Zero
	}
	return EnergyVariablePerKWh(rec).Sub(averageMarketPrice).Sub(pol.Market.DispatchingPerKWh)
}
