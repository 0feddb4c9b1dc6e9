package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"bill-advisor/internal/analysis"
	"bill-advisor/internal/storage"
)

// openHistory returns an analysis service bound to the store only, for the
// history commands.
func (a *App) openHistory(ctx context.Context) (*analysis.Service, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, nil, errors.New("database not configured; analysis history unavailable")
	}
	svc := analysis.New(a.Config, nil, nil, store, store, nil, a.Logger)
	return svc, closeStore, nil
}

// Show prints recent analyses.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	svc, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.Alerts {
		return a.showAlerts(ctx, svc, opts.Limit)
	}

	records, err := svc.List(ctx, a.Config.ResolveMaxRows(opts.Limit))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no analyses found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCreated (UTC)\tPOD\tPeriod\tInvoice EUR\tBest saving EUR/yr")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			sanitizeInline(rec.POD),
			rec.PeriodStart.Format(time.DateOnly)+" - "+rec.PeriodEnd.Format(time.DateOnly),
			formatDecimal(rec.InvoiceTotal, 2),
			formatDecimal(rec.BestSaving, 2),
		)
	}

	writer.Flush()
	return nil
}

func (a *App) showAlerts(ctx context.Context, svc *analysis.Service, limit int) error {
	alerts, err := svc.Alerts(ctx, a.Config.ResolveMaxRows(limit))
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Created (UTC)\tAnalysis\tPOD\tSaving EUR/yr\tThreshold EUR\tChannels")
	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.CreatedAt.UTC().Format(time.RFC3339),
			alert.AnalysisID,
			sanitizeInline(alert.POD),
			formatDecimal(alert.SavingEUR, 2),
			formatDecimal(alert.ThresholdEUR, 2),
			strings.Join(alert.Channels, ","),
		)
	}
	writer.Flush()
	return nil
}

// Forget deletes one analysis or the whole history.
func (a *App) Forget(ctx context.Context, opts ForgetOptions) error {
	if opts.All == (opts.ID != "") {
		return errors.New("exactly one of --id or --all must be provided")
	}

	svc, closeStore, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.All {
		n, err := svc.Clear(ctx)
		if err != nil {
			return err
		}
		a.Logger.Info().Int64("deleted", n).Msg("analysis history cleared")
		return nil
	}

	id, err := uuid.Parse(opts.ID)
	if err != nil {
		return fmt.Errorf("invalid --id value: %w", err)
	}
	if err := svc.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("analysis %s not found", id)
		}
		return err
	}
	a.Logger.Info().Str("analysis_id", id.String()).Msg("analysis deleted")
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
