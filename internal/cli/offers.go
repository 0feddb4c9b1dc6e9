package cli

import (
	"github.com/spf13/cobra"
)

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "List the market offers used for comparison",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListOffers(cmd.Context())
	},
}
