package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"bill-advisor/internal/analysis"
	"bill-advisor/internal/offers"
)

// Export renders a stored analysis as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" && opts.OffersPNGPath == "" {
		return errors.New("at least one of --csv, --png or --offers-png must be provided")
	}
	id, err := uuid.Parse(opts.ID)
	if err != nil {
		return fmt.Errorf("invalid --id value: %w", err)
	}

	svc, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}

	a.Logger.Info().Str("analysis_id", id.String()).Int("offers", len(result.Offers)).Msg("exporting analysis")

	if opts.CSVPath != "" {
		if err := writeResultCSV(opts.CSVPath, result); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeBreakdownPNG(opts.PNGPath, result); err != nil {
			return err
		}
	}
	if opts.OffersPNGPath != "" {
		if err := writeOffersPNG(opts.OffersPNGPath, result.Offers, a.Config.Export.MaxRows); err != nil {
			return err
		}
	}
	return nil
}

// writeResultCSV writes the breakdown rows followed by the offer ranking,
// each section introduced by its own header.
func writeResultCSV(path string, result *analysis.Result) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"section", "name", "fixed_eur_year", "variable_eur_kwh", "period_eur", "share_pct"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, item := range result.Costs.Breakdown {
		record := []string{
			"breakdown",
			item.Category,
			formatDecimal(item.FixedPerYear, 2),
			formatDecimal(item.VariablePerKWh, 4),
			formatDecimal(item.PeriodCost, 2),
			formatDecimal(item.SharePct, 2),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{"section", "offer", "annual_cost_eur", "saving_eur", "saving_pct", "suitable"}); err != nil {
		return err
	}
	for _, c := range result.Offers {
		record := []string{
			"offer",
			c.Offer.Supplier + " - " + c.Offer.Name,
			formatDecimal(c.AnnualCost, 2),
			formatDecimal(c.Saving, 2),
			formatDecimal(c.SavingPct, 2),
			fmt.Sprintf("%t", c.Suitable),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeBreakdownPNG(path string, result *analysis.Result) error {
	if len(result.Costs.Breakdown) == 0 {
		return errors.New("analysis has no cost breakdown to chart")
	}

	bars := make([]chart.Value, 0, len(result.Costs.Breakdown))
	for _, item := range result.Costs.Breakdown {
		bars = append(bars, chart.Value{Label: item.Category, Value: nonNegative(item.PeriodCost)})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Bill %s - %s EUR", result.Record.Customer.POD, formatDecimal(result.Costs.InvoiceTotal, 2)),
		Width:    1280,
		Height:   720,
		BarWidth: 120,
		Background: chart.Style{
			Padding: chart.Box{Top: 60},
		},
		YAxis: chart.YAxis{
			Name: "EUR",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Bars: bars,
	}
	return renderPNG(path, graph.Render)
}

func writeOffersPNG(path string, comparisons []offers.Comparison, maxRows int) error {
	if len(comparisons) == 0 {
		return errors.New("analysis has no offer comparison to chart")
	}
	if maxRows > 0 && len(comparisons) > maxRows {
		comparisons = comparisons[:maxRows]
	}

	bars := make([]chart.Value, 0, len(comparisons))
	for _, c := range comparisons {
		bars = append(bars, chart.Value{Label: c.Offer.Supplier, Value: nonNegative(c.AnnualCost)})
	}

	graph := chart.BarChart{
		Title:    "Estimated annual cost by offer",
		Width:    1280,
		Height:   720,
		BarWidth: 100,
		Background: chart.Style{
			Padding: chart.Box{Top: 60},
		},
		YAxis: chart.YAxis{
			Name: "EUR/year",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}
	return renderPNG(path, graph.Render)
}

func renderPNG(path string, render func(chart.RendererProvider, io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return render(chart.PNG, file)
}

func nonNegative(d decimal.Decimal) float64 {
	if d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
