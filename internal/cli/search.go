package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/jobspy-mcp/internal/config"
	"github.com/cloo-solutions/jobspy-mcp/internal/logging"
	"github.com/cloo-solutions/jobspy-mcp/internal/openai"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
	"github.com/cloo-solutions/jobspy-mcp/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type flagKind int

const (
	stringFlag flagKind = iota
	intFlag
	boolFlag
)

// searchFlag maps a command line flag onto a search_jobs argument.
type searchFlag struct {
	name  string
	key   string
	kind  flagKind
	usage string
}

var searchFlags = []searchFlag{
	{"sites", "siteNames", stringFlag, "Comma-separated job sites (indeed,linkedin,zip_recruiter,glassdoor,google,bayt,naukri)"},
	{"term", "searchTerm", stringFlag, "Search term"},
	{"google-term", "googleSearchTerm", stringFlag, "Google specific search term"},
	{"location", "location", stringFlag, "Location"},
	{"distance", "distance", intFlag, "Search radius in miles"},
	{"job-type", "jobType", stringFlag, "fulltime, parttime, internship or contract"},
	{"results", "resultsWanted", intFlag, "Number of results wanted"},
	{"hours-old", "hoursOld", intFlag, "Maximum job age in hours"},
	{"offset", "offset", intFlag, "Number of results to skip"},
	{"country", "countryIndeed", stringFlag, "Country for Indeed"},
	{"remote", "isRemote", boolFlag, "Only remote jobs"},
	{"easy-apply", "easyApply", boolFlag, "Only jobs with on-site apply"},
	{"fetch-description", "linkedinFetchDescription", boolFlag, "Fetch LinkedIn descriptions (slower)"},
	{"annual-salary", "enforceAnnualSalary", boolFlag, "Convert wages to annual salary"},
	{"proxies", "proxies", stringFlag, "Comma-separated proxies"},
	{"ca-cert", "caCert", stringFlag, "CA certificate for proxies"},
	{"format", "format", stringFlag, "Scraper output format: json or csv"},
	{"verbose", "verbose", intFlag, "Scraper log verbosity (0-2)"},
	{"timeout", "timeout", intFlag, "Timeout in milliseconds"},
}

// SearchCmd runs one search locally and prints the response.
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a job search and print the results",
		Long: `Runs the scraper once with the given parameters and prints the search
response as JSON. Only flags that are set are passed on; everything else
takes the server defaults.

With --query the parameters are first extracted from a natural language
query (requires JOBSPY_OPENAI_API_KEY). Explicit flags override them.`,
		Example: `  jobspy-mcp search --sites indeed,linkedin --term "nurse" --location "Austin, TX" --results 10
  jobspy-mcp search --query "remote golang jobs posted this week"`,
		Args: cobra.NoArgs,
		RunE: runSearch,
	}

	for _, f := range searchFlags {
		switch f.kind {
		case stringFlag:
			cmd.Flags().String(f.name, "", f.usage)
		case intFlag:
			cmd.Flags().Int(f.name, 0, f.usage)
		case boolFlag:
			cmd.Flags().Bool(f.name, false, f.usage)
		}
	}
	cmd.Flags().StringP("query", "q", "", "Natural language query to extract parameters from")

	return cmd
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	args := map[string]any{}
	if query, _ := cmd.Flags().GetString("query"); query != "" {
		extracted, err := extractParams(ctx, cfg, query)
		if err != nil {
			return err
		}
		args = extracted
	}
	for k, v := range flagArgs(cmd.Flags()) {
		args[k] = v
	}

	a, err := newApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.search.Search(ctx, args, service.CallInfo{SessionID: "cli-" + session.NewID()})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

// flagArgs collects the search arguments of every flag set on the command line.
func flagArgs(flags *pflag.FlagSet) map[string]any {
	args := make(map[string]any)
	for _, f := range searchFlags {
		if !flags.Changed(f.name) {
			continue
		}
		switch f.kind {
		case stringFlag:
			args[f.key], _ = flags.GetString(f.name)
		case intFlag:
			args[f.key], _ = flags.GetInt(f.name)
		case boolFlag:
			args[f.key], _ = flags.GetBool(f.name)
		}
	}
	return args
}

func extractParams(ctx context.Context, cfg *config.Config, query string) (map[string]any, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("--query requires JOBSPY_OPENAI_API_KEY")
	}
	client, err := openai.NewClient(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})
	if err != nil {
		return nil, err
	}
	return client.ExtractSearchParams(ctx, query)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
