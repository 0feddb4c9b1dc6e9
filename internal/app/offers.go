package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"bill-advisor/internal/offers"
)

// ListOffers prints the configured offer catalog.
func (a *App) ListOffers(ctx context.Context) error {
	list, err := a.newCatalog().Offers(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "catalog is empty")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSupplier\tOffer\tScheme\tPrice\tFee EUR/month\tMonths\tFeatures")
	for _, o := range list {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			o.ID,
			sanitizeInline(o.Supplier),
			sanitizeInline(o.Name),
			o.Scheme(),
			describePricing(o.Pricing),
			formatDecimal(o.MonthlyFee, 2),
			o.DurationMonths,
			strings.Join(o.Features, "; "),
		)
	}
	writer.Flush()
	return nil
}

func describePricing(p offers.Pricing) string {
	switch v := p.(type) {
	case offers.FlatRate:
		return formatDecimal(v.PricePerKWh, 4) + " EUR/kWh"
	case offers.IndexLinked:
		return "PUN + " + formatDecimal(v.SpreadPerKWh, 4)
	case offers.TwoSlot:
		return fmt.Sprintf("F1 %s / F23 %s", formatDecimal(v.F1PerKWh, 4), formatDecimal(v.F23PerKWh, 4))
	case offers.ThreeSlot:
		return fmt.Sprintf("F1 %s / F2 %s / F3 %s", formatDecimal(v.F1PerKWh, 4), formatDecimal(v.F2PerKWh, 4), formatDecimal(v.F3PerKWh, 4))
	default:
		return "-"
	}
}
