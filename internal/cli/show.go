package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bill-advisor/internal/app"
)

var (
	showLimit  int
	showAlerts bool
	forgetID   string
	forgetAll  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}

		opts := app.ShowOptions{
			Limit:  showLimit,
			Alerts: showAlerts,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Delete a stored analysis or the whole history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Forget(cmd.Context(), app.ForgetOptions{ID: forgetID, All: forgetAll})
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of analyses to display (0 uses export.max_rows)")
	showCmd.Flags().BoolVar(&showAlerts, "alerts", false, "List emitted savings alerts instead of analyses")

	forgetCmd.Flags().StringVar(&forgetID, "id", "", "Analysis ID to delete")
	forgetCmd.Flags().BoolVar(&forgetAll, "all", false, "Delete every stored analysis")
	forgetCmd.MarkFlagsMutuallyExclusive("id", "all")
}
