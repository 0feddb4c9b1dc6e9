package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bill-advisor/internal/app"
	"bill-advisor/internal/billing"
)

var (
	backfillFrom   string
	backfillTo     string
	backfillTarget string
	backfillDryRun bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Copy historical commodity prices into PostgreSQL and/or InfluxDB",
	RunE: func(cmd *cobra.Command, args []string) error {
		if backfillFrom == "" || backfillTo == "" {
			return fmt.Errorf("--from and --to must be provided")
		}

		from, err := billing.ParseDate(backfillFrom)
		if err != nil {
			return fmt.Errorf("invalid --from value: %w", err)
		}

		to, err := billing.ParseDate(backfillTo)
		if err != nil {
			return fmt.Errorf("invalid --to value: %w", err)
		}

		if to.Before(from.Time) {
			return fmt.Errorf("--from must not be after --to")
		}

		switch backfillTarget {
		case app.BackfillPostgres, app.BackfillInflux, app.BackfillAll:
		default:
			return fmt.Errorf("--target must be one of %s, %s, %s", app.BackfillPostgres, app.BackfillInflux, app.BackfillAll)
		}

		opts := app.BackfillOptions{
			From:   from,
			To:     to,
			Target: backfillTarget,
			DryRun: backfillDryRun,
		}

		return getApp().Backfill(cmd.Context(), opts)
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "First day (YYYY-MM-DD, inclusive)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "Last day (YYYY-MM-DD, inclusive)")
	backfillCmd.Flags().StringVar(&backfillTarget, "target", app.BackfillAll, "Where to write: postgres, influx or all")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "Fetch without writing to storage")
}
