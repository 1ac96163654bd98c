package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout applies when neither the invocation nor the runner config sets one.
	DefaultTimeout = domain.DefaultTimeoutMS * time.Millisecond

	// DefaultKillGrace is how long a cancelled scraper has between SIGTERM and SIGKILL.
	DefaultKillGrace = 5 * time.Second

	defaultWaitDelay = 2 * time.Second
	stderrTailBytes  = 8 * 1024
)

// RunnerConfig describes how to reach the scraper executable.
type RunnerConfig struct {
	// Command is the executable, resolved through PATH (e.g. "docker" or "python3").
	Command string
	// BaseArgs precede the request flags (e.g. "run", "--rm", "jobspy").
	BaseArgs       []string
	Dir            string
	Env            []string
	DefaultTimeout time.Duration
	// KillGrace separates SIGTERM from SIGKILL when a run is cancelled.
	KillGrace time.Duration
}

// Invocation is one scraper run.
type Invocation struct {
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
	Format  domain.OutputFormat
}

// Output is what a successful run produced.
type Output struct {
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Runner executes the scraper and classifies process-level failures. It
// never retries.
type Runner struct {
	cfg       RunnerConfig
	waitDelay time.Duration
	logger    logrus.FieldLogger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig, logger logrus.FieldLogger) *Runner {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		cfg:       cfg,
		waitDelay: cfg.KillGrace + defaultWaitDelay,
		logger:    logger,
	}
}

// Run starts the scraper, waits for it to exit and returns its stdout.
//
// When the timeout fires the process (and on unix its whole process group)
// is sent SIGTERM, then SIGKILL after the kill grace, and Run waits for it
// to be reaped before returning TIMEOUT.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Output, error) {
	path, err := exec.LookPath(r.cfg.Command)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExecutableNotFound,
			fmt.Sprintf("scraper executable %q not found", r.cfg.Command), err)
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = r.cfg.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := make([]string, 0, len(r.cfg.BaseArgs)+len(inv.Args))
	args = append(args, r.cfg.BaseArgs...)
	args = append(args, inv.Args...)

	cmd := exec.CommandContext(runCtx, path, args...)
	cmd.Dir = r.cfg.Dir
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if env := append(append([]string{}, r.cfg.Env...), inv.Env...); len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.waitDelay
	reapGroup := configureProcessGroup(cmd, r.cfg.KillGrace)

	log := r.logger.WithFields(logrus.Fields{
		"command":    path,
		"args":       RedactArgs(args),
		"timeout_ms": timeout.Milliseconds(),
	})
	log.Debug("spawning scraper")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExecutableNotFound,
				fmt.Sprintf("scraper executable %q could not be started", path), err)
		}
		return nil, fmt.Errorf("failed to start scraper: %w", err)
	}

	waitErr := cmd.Wait()
	reapGroup()
	out := &Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if waitErr != nil && !(errors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState.Success()) {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			log.WithField("duration_ms", out.Duration.Milliseconds()).Warn("scraper timed out and was killed")
			return out, domain.NewDomainErrorWithCause(domain.ErrCodeTimeout,
				fmt.Sprintf("scraper exceeded timeout of %s", timeout), waitErr)
		case ctx.Err() != nil:
			return out, fmt.Errorf("scraper cancelled: %w", ctx.Err())
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			msg := fmt.Sprintf("scraper exited with status %d", exitErr.ExitCode())
			if tail := stderr.String(); tail != "" {
				msg += ": " + tail
			}
			return out, domain.NewDomainErrorWithCause(domain.ErrCodeNonZeroExit, msg, waitErr)
		}
		return out, fmt.Errorf("failed waiting for scraper: %w", waitErr)
	}

	if err := checkFormat(out.Stdout, inv.Format); err != nil {
		return out, err
	}

	log.WithFields(logrus.Fields{
		"duration_ms":  out.Duration.Milliseconds(),
		"stdout_bytes": len(out.Stdout),
	}).Debug("scraper finished")

	return out, nil
}

// RedactArgs returns args with proxy credentials masked, for logging.
func RedactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if strings.HasPrefix(a, FlagProxies+"=") {
			a = FlagProxies + "=[redacted]"
		}
		out[i] = a
	}
	return out
}

func checkFormat(stdout []byte, format domain.OutputFormat) error {
	trimmed := bytes.TrimSpace(stdout)
	switch format {
	case domain.FormatCSV:
		if len(trimmed) == 0 {
			return domain.NewDomainError(domain.ErrCodeMalformedOutput, "scraper produced no CSV output")
		}
	default:
		if !json.Valid(trimmed) {
			return domain.NewDomainError(domain.ErrCodeMalformedOutput,
				fmt.Sprintf("scraper output is not valid JSON (%d bytes)", len(trimmed)))
		}
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(bytes.TrimSpace(t.buf))
}
