// Package cli implements the jobspy-mcp command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jobspy-mcp",
		Short: "MCP server for searching job boards",
		Long: `jobspy-mcp exposes the JobSpy scraper as the MCP tool search_jobs.

Environment variables (prefix JOBSPY_):
  JOBSPY_ENABLE_SSE        serve MCP over HTTP event streams instead of stdio
  JOBSPY_SCRAPER_COMMAND   scraper executable (default: docker)
  JOBSPY_SCRAPER_ARGS      arguments placed before the search flags (default: run,--rm,jobspy)
  JOBSPY_DATABASE_URL      PostgreSQL URL for the search log (optional)
  JOBSPY_S3_ENDPOINT       S3 endpoint for raw output archives (optional)
  JOBSPY_OPENAI_API_KEY    enables "search --query"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(ServeCmd(version))
	rootCmd.AddCommand(SearchCmd())
	rootCmd.AddCommand(SitesCmd())
	rootCmd.AddCommand(HistoryCmd())

	return rootCmd
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute(version string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd(version)
	if len(args) == 0 {
		args = []string{"serve"}
	}
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
