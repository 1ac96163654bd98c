package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/api/handlers"
	"github.com/cloo-solutions/jobspy-mcp/internal/config"
	"github.com/cloo-solutions/jobspy-mcp/internal/database"
	"github.com/cloo-solutions/jobspy-mcp/internal/repository"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
	"github.com/spf13/cobra"
)

// HistoryCmd prints the most recent searches from the search log.
func HistoryCmd() *cobra.Command {
	var (
		limit      int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches",
		Long:  "Lists the most recent searches recorded in the search log. Requires JOBSPY_DATABASE_URL.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("search history requires JOBSPY_DATABASE_URL")
			}

			pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			entries, err := repository.NewSearchLogRepository(pool).ListRecentSearchLogs(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list searches: %w", err)
			}

			if outputJSON {
				out := make([]handlers.SearchLogResponse, 0, len(entries))
				for _, e := range entries {
					out = append(out, handlers.NewSearchLogResponse(e))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return printHistory(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of searches")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func printHistory(w io.Writer, entries []*service.SearchLogEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No searches recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tSTATUS\tRESULTS\tDURATION\tSITES\tTERM\tLOCATION")
	for _, e := range entries {
		status := e.Status
		if e.ErrorCode != "" {
			status += " (" + e.ErrorCode + ")"
		}
		var sites, term, location string
		if e.Request != nil {
			sites = e.Request.SiteSelector()
			term = e.Request.SearchTerm
			location = e.Request.Location
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			status,
			e.ResultCount,
			(time.Duration(e.DurationMs) * time.Millisecond).String(),
			sites,
			term,
			location,
		)
	}
	return tw.Flush()
}
