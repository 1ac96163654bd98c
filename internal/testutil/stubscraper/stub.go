// Package stubscraper lets a test binary stand in for the external scraper.
//
// A package opts in from TestMain:
//
//	func TestMain(m *testing.M) {
//		stubscraper.RunIfRequested()
//		os.Exit(m.Run())
//	}
//
// RunnerConfig then points a scraper.Runner at the test binary itself, and
// the child process behaves according to the requested Mode.
package stubscraper

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/scraper"
)

// Mode selects the stub behaviour.
type Mode string

const (
	// ModeJobs prints --results_wanted JSON records (or CSV with --format=csv).
	ModeJobs Mode = "jobs"
	// ModeArgs prints the received argument vector as a JSON array.
	ModeArgs Mode = "args"
	// ModeFail writes to stderr and exits with status 3.
	ModeFail Mode = "fail"
	// ModeGarbage prints text that is not JSON.
	ModeGarbage Mode = "garbage"
	// ModeHang records its pid and sleeps until killed.
	ModeHang Mode = "hang"
	// ModeTrapTerm records its pid, waits for SIGTERM, writes the signal
	// name to SignalFile and exits with status 143.
	ModeTrapTerm Mode = "trap-term"
	// ModeIgnoreTerm records its pid, ignores SIGTERM and sleeps until killed.
	ModeIgnoreTerm Mode = "ignore-term"
)

const (
	envMode    = "JOBSPY_STUB_MODE"
	envPIDFile = "JOBSPY_STUB_PIDFILE"
	envDelay   = "JOBSPY_STUB_DELAY"
	envSignal  = "JOBSPY_STUB_SIGNALFILE"
)

// Options tune the stub child.
type Options struct {
	// Delay is slept before producing output.
	Delay time.Duration
	// PIDFile receives the child's pid (ModeHang, ModeTrapTerm, ModeIgnoreTerm).
	PIDFile string
	// SignalFile receives the name of the first trapped signal (ModeTrapTerm).
	SignalFile string
}

// RunnerConfig returns a config that runs the current test binary as the stub.
func RunnerConfig(mode Mode, opts Options) scraper.RunnerConfig {
	env := []string{envMode + "=" + string(mode)}
	if opts.Delay > 0 {
		env = append(env, envDelay+"="+opts.Delay.String())
	}
	if opts.PIDFile != "" {
		env = append(env, envPIDFile+"="+opts.PIDFile)
	}
	if opts.SignalFile != "" {
		env = append(env, envSignal+"="+opts.SignalFile)
	}
	return scraper.RunnerConfig{
		Command: os.Args[0],
		Env:     env,
	}
}

// RunIfRequested turns the process into the stub when it was started by
// RunnerConfig and exits; otherwise it returns immediately.
func RunIfRequested() {
	mode := Mode(os.Getenv(envMode))
	if mode == "" {
		return
	}
	os.Exit(run(mode, os.Args[1:]))
}

func run(mode Mode, args []string) int {
	if d, err := time.ParseDuration(os.Getenv(envDelay)); err == nil {
		time.Sleep(d)
	}

	flags := parseFlags(args)

	switch mode {
	case ModeArgs:
		_ = json.NewEncoder(os.Stdout).Encode(args)
	case ModeFail:
		fmt.Fprintln(os.Stderr, "scrape failed: upstream returned 429")
		return 3
	case ModeGarbage:
		fmt.Println("Traceback (most recent call last): not json")
	case ModeHang:
		writePID()
		time.Sleep(10 * time.Minute)
	case ModeTrapTerm:
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGTERM)
		writePID()
		sig := <-sigs
		if path := os.Getenv(envSignal); path != "" {
			_ = os.WriteFile(path, []byte(sig.String()), 0o644)
		}
		return 143
	case ModeIgnoreTerm:
		signal.Ignore(syscall.SIGTERM)
		writePID()
		time.Sleep(10 * time.Minute)
	case ModeJobs:
		n, err := strconv.Atoi(flags["--results_wanted"])
		if err != nil {
			n = 20
		}
		if flags["--format"] == "csv" {
			writeCSV(n)
		} else {
			writeJSON(n, flags["--search_term"])
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown stub mode %q\n", mode)
		return 2
	}
	return 0
}

func writePID() {
	if path := os.Getenv(envPIDFile); path != "" {
		_ = os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
	}
}

func parseFlags(args []string) map[string]string {
	flags := make(map[string]string, len(args))
	for _, a := range args {
		name, value, _ := strings.Cut(a, "=")
		flags[name] = value
	}
	return flags
}

func writeJSON(n int, term string) {
	records := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, map[string]any{
			"id":          fmt.Sprintf("in-%d", i),
			"site":        "indeed",
			"job_url":     fmt.Sprintf("https://www.indeed.com/viewjob?jk=%d", i),
			"title":       fmt.Sprintf("%s %d", term, i),
			"company":     "Acme Health",
			"location":    "Austin, TX, US",
			"date_posted": 1700000000000 + int64(i)*1000,
			"min_amount":  80000,
			"max_amount":  95000,
			"currency":    "USD",
			"interval":    "yearly",
			"is_remote":   i%2 == 0,
			"job_type":    "fulltime",
		})
	}
	_ = json.NewEncoder(os.Stdout).Encode(records)
}

func writeCSV(n int) {
	w := csv.NewWriter(os.Stdout)
	_ = w.Write([]string{"id", "site", "title", "company", "location", "date_posted", "is_remote"})
	for i := 0; i < n; i++ {
		_ = w.Write([]string{
			fmt.Sprintf("li-%d", i), "linkedin", fmt.Sprintf("Nurse %d", i), "Acme, Inc.",
			"Remote, OR, US", "2024-03-01", "True",
		})
	}
	w.Flush()
}
