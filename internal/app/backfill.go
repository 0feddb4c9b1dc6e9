package app

import (
	"context"
	"errors"
	"fmt"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/reference"
)

// Backfill targets.
const (
	BackfillPostgres = "postgres"
	BackfillInflux   = "influx"
	BackfillAll      = "all"
)

type priceTarget struct {
	name  string
	write func(ctx context.Context, points []reference.PricePoint) error
}

// Backfill copies commodity prices from the HTTP endpoint into PostgreSQL
// and/or InfluxDB, one calendar month at a time.
func (a *App) Backfill(ctx context.Context, opts BackfillOptions) error {
	if opts.To.Before(opts.From.Time) {
		return errors.New("backfill range is empty, check --from/--to")
	}
	if a.Config.Reference.BaseURL == "" {
		return errors.New("reference.base_url is required to backfill prices")
	}

	target := opts.Target
	if target == "" {
		target = BackfillAll
	}

	var writers []priceTarget
	if opts.DryRun {
		a.Logger.Warn().Msg("backfill dry-run: nothing will be written")
	} else {
		if target == BackfillPostgres || target == BackfillAll {
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				if target == BackfillPostgres {
					return errors.New("database.dsn not configured; cannot backfill")
				}
				a.Logger.Warn().Msg("database.dsn not configured; skipping postgres")
			} else {
				defer closeStore()
				if key := a.Config.Scheduler.AdvisoryLockKey; key != 0 {
					unlock, acquired, err := store.TryAdvisoryLock(ctx, key)
					if err != nil {
						return fmt.Errorf("acquire advisory lock: %w", err)
					}
					if !acquired {
						return errors.New("another backfill holds the advisory lock")
					}
					defer unlock()
				}
				writers = append(writers, priceTarget{name: BackfillPostgres, write: store.UpsertPrices})
			}
		}
		if target == BackfillInflux || target == BackfillAll {
			if a.Config.InfluxDB.URL == "" {
				if target == BackfillInflux {
					return errors.New("influxdb.url not configured; cannot backfill")
				}
				a.Logger.Warn().Msg("influxdb.url not configured; skipping influx")
			} else {
				influx, err := a.openInflux(ctx)
				if err != nil {
					return err
				}
				defer influx.Close()
				writers = append(writers, priceTarget{name: BackfillInflux, write: influx.WritePrices})
			}
		}
		if len(writers) == 0 {
			return fmt.Errorf("no backfill target available for %q", target)
		}
	}

	source := a.newHTTPSource()

	processed := 0
	failed := 0
	for _, window := range monthWindows(opts.From, opts.To) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		points, err := source.CommodityPrices(ctx, window.Start, window.End)
		if err != nil {
			failed++
			a.Logger.Error().Err(err).Stringer("from", window.Start).Msg("price fetch failed")
			continue
		}
		for _, w := range writers {
			if err := w.write(ctx, points); err != nil {
				failed++
				a.Logger.Error().Err(err).Str("target", w.name).Stringer("from", window.Start).Msg("price write failed")
			}
		}
		processed += len(points)
		a.Logger.Debug().Stringer("from", window.Start).Int("points", len(points)).Msg("month backfilled")
	}

	a.Logger.Info().Int("points", processed).Int("failed", failed).Msg("backfill completed")
	if failed > 0 {
		return errors.New("some months failed to backfill, check the logs")
	}
	return nil
}

// monthWindows splits [from, to] into calendar-month periods, clipping the
// first and last to the requested bounds.
func monthWindows(from, to billing.Date) []billing.Period {
	var windows []billing.Period
	start := from
	for !start.After(to.Time) {
		first := billing.NewDate(start.Year(), start.Month(), 1)
		end := billing.DateOf(first.AddDate(0, 1, -1))
		if end.After(to.Time) {
			end = to
		}
		windows = append(windows, billing.Period{Start: start, End: end})
		start = billing.DateOf(end.AddDate(0, 0, 1))
	}
	return windows
}
