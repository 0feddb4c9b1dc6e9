package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bill-advisor/internal/app"
)

var (
	exportID            string
	exportPNGPath       string
	exportOffersPNGPath string
	exportCSVPath       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored analysis as CSV and/or PNG charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportID == "" {
			return fmt.Errorf("--id must be provided")
		}

		opts := app.ExportOptions{
			ID:            exportID,
			PNGPath:       exportPNGPath,
			OffersPNGPath: exportOffersPNGPath,
			CSVPath:       exportCSVPath,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportID, "id", "", "Analysis ID")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write the cost breakdown chart")
	exportCmd.Flags().StringVar(&exportOffersPNGPath, "offers-png", "", "Path to write the offer ranking chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
}
