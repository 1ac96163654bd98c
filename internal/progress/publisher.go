// Package progress emits periodic progress notifications for running searches.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/mcp/protocol"
	"github.com/cloo-solutions/jobspy-mcp/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultStep     = 5
	// DefaultCap is the highest value reported before the search finishes.
	DefaultCap = 90
)

// Notifier delivers messages to registered sessions. *session.Registry
// satisfies it.
type Notifier interface {
	Has(id string) bool
	Notify(ctx context.Context, id string, msg any) error
}

// Target identifies who receives the progress of one search.
type Target struct {
	SessionID string
	Tool      string
	// ProgressToken is echoed back when the client supplied one.
	ProgressToken any
}

// Config tunes the ticker.
type Config struct {
	Interval time.Duration
	Step     int
	Cap      int
}

// Publisher sends progress events for a search to its caller's session.
type Publisher struct {
	notifier Notifier
	cfg      Config
	logger   logrus.FieldLogger
}

// NewPublisher creates a Publisher. Zero config values take the defaults.
func NewPublisher(notifier Notifier, cfg Config, logger logrus.FieldLogger) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultStep
	}
	if cfg.Cap <= 0 || cfg.Cap >= domain.ProgressComplete {
		cfg.Cap = DefaultCap
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{notifier: notifier, cfg: cfg, logger: logger}
}

// Run ticks until ctx is cancelled, raising progress by Step up to Cap. It
// returns immediately when the target has no registered session and stops
// early once the session goes away. Run never fails the search; it always
// returns nil.
func (p *Publisher) Run(ctx context.Context, target Target) error {
	if !p.active(target) {
		return nil
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	current := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if current >= p.cfg.Cap {
				continue
			}
			current = min(current+p.cfg.Step, p.cfg.Cap)
			msg := fmt.Sprintf("Searching for jobs (%d%%)...", current)
			if !p.emit(ctx, target, current, msg) {
				return nil
			}
		}
	}
}

// Complete sends the final 100% event if the session is still registered.
func (p *Publisher) Complete(ctx context.Context, target Target) {
	if !p.active(target) {
		return
	}
	p.emit(ctx, target, domain.ProgressComplete, "Job search completed")
}

func (p *Publisher) active(target Target) bool {
	return p.notifier != nil && target.SessionID != "" && p.notifier.Has(target.SessionID)
}

// emit reports whether the session is still worth notifying.
func (p *Publisher) emit(ctx context.Context, target Target, value int, message string) bool {
	event := NewEvent(target, value, message)
	err := p.notifier.Notify(ctx, target.SessionID, event)
	switch {
	case err == nil:
		metrics.RecordProgressEvent(metrics.OutcomeDelivered)
		return true
	case errors.Is(err, domain.ErrSessionNotFound):
		metrics.RecordProgressEvent(metrics.OutcomeNoSession)
		p.logger.WithField("session_id", target.SessionID).Debug("session gone, dropping progress")
		return false
	default:
		metrics.RecordProgressEvent(metrics.OutcomeFailed)
		p.logger.WithError(err).WithField("session_id", target.SessionID).Warn("failed to send progress")
		return true
	}
}

// NewEvent builds the notifications/progress message for one event.
func NewEvent(target Target, value int, message string) *protocol.Notification {
	return protocol.NewNotification(protocol.MethodProgress, &protocol.ProgressParams{
		ProgressToken: target.ProgressToken,
		Total:         domain.ProgressComplete,
		ProgressEvent: domain.ProgressEvent{
			Type:     domain.ProgressEventType,
			Tool:     target.Tool,
			Progress: value,
			Message:  message,
		},
	})
}
