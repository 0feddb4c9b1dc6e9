package cli

import (
	"github.com/spf13/cobra"
)

var simulateSample string

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Analyze a sample bill and dispatch a savings alert if it qualifies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().SimulateAlert(cmd.Context(), simulateSample)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSample, "sample", "high", "Built-in sample bill (medium, high, solar)")
}
