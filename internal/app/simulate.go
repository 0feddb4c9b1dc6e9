package app

import (
	"context"
	"errors"
	"fmt"

	"bill-advisor/internal/analysis"
	"bill-advisor/internal/config"
)

// SimulateAlert analyzes a built-in sample bill with the configured alerting
// channels and reports whether an alert went out. Nothing is persisted.
func (a *App) SimulateAlert(ctx context.Context, sample string) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}
	if sample == "" {
		sample = "high"
	}
	rec, err := loadRecord("", sample)
	if err != nil {
		return err
	}

	cfg := *a.Config
	cfg.Analysis.Persist = false
	cfg.Database.DSN = ""
	if cfg.Reference.PriceSource == config.PriceSourcePostgres {
		cfg.Reference.PriceSource = config.PriceSourceStatic
	}

	sim := NewApp(&cfg, a.Logger)
	comps, err := sim.build(ctx, &cfg, nil)
	if err != nil {
		return err
	}
	defer comps.Close()

	result, err := comps.service.Analyze(ctx, rec)
	if err != nil {
		return err
	}
	for _, f := range result.Failures {
		if f.Collaborator == analysis.CollaboratorAlerts {
			return fmt.Errorf("alert delivery failed: %s", f.Message)
		}
	}
	if !result.Alerted {
		a.Logger.Info().
			Str("best_saving", result.BestSaving().StringFixed(2)).
			Float64("threshold_eur", cfg.Alerting.ThresholdEUR).
			Msg("best saving does not exceed the threshold; no alert sent")
		return nil
	}
	a.Logger.Info().Str("analysis_id", result.ID.String()).Msg("simulated alert dispatched")
	return nil
}
