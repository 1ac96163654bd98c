package cli

import (
	"fmt"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/spf13/cobra"
)

// SitesCmd lists the job sites accepted in siteNames.
func SitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List supported job sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, site := range domain.AllSites {
				fmt.Fprintln(cmd.OutOrStdout(), site)
			}
			return nil
		},
	}
}
