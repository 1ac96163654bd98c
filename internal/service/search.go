package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/metrics"
	"github.com/cloo-solutions/jobspy-mcp/internal/progress"
	"github.com/cloo-solutions/jobspy-mcp/internal/scraper"
	"github.com/cloo-solutions/jobspy-mcp/internal/telemetry"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ToolName is the name searches are reported under.
const ToolName = "search_jobs"

const partialOutputBytes = 2048

// RequestValidator turns raw arguments into a canonical request.
type RequestValidator interface {
	Validate(raw map[string]any) (*domain.SearchRequest, error)
}

// ScraperRunner runs the external scraper.
type ScraperRunner interface {
	Run(ctx context.Context, inv scraper.Invocation) (*scraper.Output, error)
}

// ResultNormalizer converts scraper output to jobs.
type ResultNormalizer interface {
	Normalize(raw []byte, format domain.OutputFormat) ([]*domain.NormalizedJob, error)
}

// ProgressReporter publishes progress for one search.
type ProgressReporter interface {
	Run(ctx context.Context, target progress.Target) error
	Complete(ctx context.Context, target progress.Target)
}

// CallInfo identifies the caller of a search.
type CallInfo struct {
	SessionID     string
	ProgressToken any
}

// SearchService runs one search end to end: validate, build the command,
// run the scraper alongside the progress ticker, normalize, report.
type SearchService struct {
	validator  RequestValidator
	runner     ScraperRunner
	normalizer ResultNormalizer
	progress   ProgressReporter
	searchLogs SearchLogRepository
	archiver   ResultArchiver
	logger     logrus.FieldLogger
}

// SearchOption configures optional collaborators.
type SearchOption func(*SearchService)

// WithSearchLog records every finished search.
func WithSearchLog(repo SearchLogRepository) SearchOption {
	return func(s *SearchService) { s.searchLogs = repo }
}

// WithArchiver stores raw scraper output of successful searches.
func WithArchiver(a ResultArchiver) SearchOption {
	return func(s *SearchService) { s.archiver = a }
}

func NewSearchService(
	validator RequestValidator,
	runner ScraperRunner,
	normalizer ResultNormalizer,
	reporter ProgressReporter,
	logger logrus.FieldLogger,
	opts ...SearchOption,
) *SearchService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &SearchService{
		validator:  validator,
		runner:     runner,
		normalizer: normalizer,
		progress:   reporter,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// search carries the state of one in-flight search.
type search struct {
	id      string
	call    CallInfo
	raw     map[string]any
	req     *domain.SearchRequest
	state   domain.SearchState
	started time.Time
	log     logrus.FieldLogger
}

func (s *search) transition(next domain.SearchState) {
	if !s.state.CanTransitionTo(next) {
		s.log.WithFields(logrus.Fields{"from": s.state, "to": next}).Error("illegal search state transition")
		return
	}
	s.state = next
}

// Search runs a search for raw tool arguments. Validation failures return
// before any process is started. Process and parse failures return typed
// domain errors; no final progress event is sent for them.
func (s *SearchService) Search(ctx context.Context, raw map[string]any, call CallInfo) (*domain.SearchResponse, error) {
	run := &search{
		id:      uuid.NewString(),
		call:    call,
		raw:     raw,
		state:   domain.SearchStateIdle,
		started: time.Now(),
	}
	run.log = s.logger.WithFields(logrus.Fields{
		"search_id":  run.id,
		"session_id": call.SessionID,
	})

	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		SearchID:  run.id,
		SessionID: call.SessionID,
		Operation: ToolName,
	})
	defer span.End()

	req, err := s.validator.Validate(raw)
	if err != nil {
		run.transition(domain.SearchStateFailed)
		run.log.WithError(err).WithField("params", raw).Info("rejected search parameters")
		s.finish(ctx, run, nil, "", err)
		return nil, err
	}
	run.req = req
	run.log = run.log.WithFields(req.LogFields())
	span.SetTag("sites", req.SiteSelector())

	run.transition(domain.SearchStateRunning)
	run.log.Info("search started")

	out, err := s.execute(ctx, run)
	if err != nil {
		return nil, s.fail(ctx, span, run, out, err)
	}

	run.transition(domain.SearchStateCompleting)
	jobs, err := s.normalizer.Normalize(out.Stdout, req.Format)
	if err != nil {
		return nil, s.fail(ctx, span, run, out, err)
	}

	archiveKey := s.archive(ctx, run, out.Stdout)
	s.progress.Complete(ctx, s.target(run))
	run.transition(domain.SearchStateDone)
	span.SetOK()

	resp := domain.NewSearchResponse(jobs, fmt.Sprintf("Found %d jobs", len(jobs)))
	metrics.RecordJobsReturned(resp.Count)
	s.finish(ctx, run, resp, archiveKey, nil)

	run.log.WithFields(logrus.Fields{
		"count":       resp.Count,
		"duration_ms": time.Since(run.started).Milliseconds(),
	}).Info("search completed")
	return resp, nil
}

// execute runs the scraper and the progress ticker as one group. The ticker
// is stopped on every exit path before execute returns.
func (s *SearchService) execute(ctx context.Context, run *search) (*scraper.Output, error) {
	inv := scraper.Invocation{
		Args:    scraper.BuildArgs(run.req),
		Timeout: run.req.Timeout(),
		Format:  run.req.Format,
	}

	g, gctx := errgroup.WithContext(ctx)
	tickCtx, stopTicker := context.WithCancel(gctx)
	defer stopTicker()

	var out *scraper.Output
	g.Go(func() error {
		defer stopTicker()
		var err error
		out, err = s.runner.Run(gctx, inv)
		return err
	})
	g.Go(func() error {
		return s.progress.Run(tickCtx, s.target(run))
	})

	err := g.Wait()
	return out, err
}

func (s *SearchService) target(run *search) progress.Target {
	return progress.Target{
		SessionID:     run.call.SessionID,
		Tool:          ToolName,
		ProgressToken: run.call.ProgressToken,
	}
}

func (s *SearchService) fail(ctx context.Context, span *telemetry.Span, run *search, out *scraper.Output, err error) error {
	run.transition(domain.SearchStateFailed)

	fields := logrus.Fields{
		"code":        domain.ErrorCode(err),
		"duration_ms": time.Since(run.started).Milliseconds(),
	}
	if out != nil {
		fields["stderr"] = out.Stderr
		fields["stdout_bytes"] = len(out.Stdout)
		fields["partial_output"] = truncate(out.Stdout, partialOutputBytes)
	}
	run.log.WithError(err).WithFields(fields).Error("search failed")
	span.SetError(err)

	s.finish(ctx, run, nil, "", err)
	return err
}

func (s *SearchService) archive(ctx context.Context, run *search, stdout []byte) string {
	if s.archiver == nil {
		return ""
	}
	key, err := s.archiver.Archive(ctx, run.id, run.req.Format, stdout)
	if err != nil {
		run.log.WithError(err).Warn("failed to archive scraper output")
		return ""
	}
	return key
}

// finish records metrics and the search log entry.
func (s *SearchService) finish(ctx context.Context, run *search, resp *domain.SearchResponse, archiveKey string, searchErr error) {
	duration := time.Since(run.started)
	code := "OK"
	if searchErr != nil {
		code = domain.ErrorCode(searchErr)
	}
	metrics.RecordSearch(code, duration)

	if s.searchLogs == nil {
		return
	}

	entry := SearchLogEntry{
		ID:         run.id,
		SessionID:  run.call.SessionID,
		Request:    run.req,
		Raw:        run.raw,
		Status:     SearchStatusSucceeded,
		DurationMs: int(duration.Milliseconds()),
		ArchiveKey: archiveKey,
	}
	if resp != nil {
		entry.ResultCount = resp.Count
	}
	if searchErr != nil {
		entry.Status = SearchStatusFailed
		entry.ErrorCode = code
		entry.ErrorMessage = searchErr.Error()
	}

	if _, err := s.searchLogs.CreateSearchLog(context.WithoutCancel(ctx), entry); err != nil {
		run.log.WithError(err).Warn("failed to write search log")
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
