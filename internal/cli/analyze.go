package cli

import (
	"github.com/spf13/cobra"

	"bill-advisor/internal/app"
)

var analyzeOpts app.AnalyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one billing record and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Analyze(cmd.Context(), analyzeOpts)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOpts.File, "file", "", "Billing record JSON file (- for stdin)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.Sample, "sample", "", "Use a built-in sample bill (medium, high, solar)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.OutPath, "out", "", "Write the result JSON here instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeOpts.PNGPath, "png", "", "Path to write the cost breakdown chart")
	analyzeCmd.Flags().StringVar(&analyzeOpts.CSVPath, "csv", "", "Path to write breakdown and offers as CSV")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.Save, "save", false, "Persist the analysis to the database")
}
