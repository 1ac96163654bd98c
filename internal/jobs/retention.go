package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// SearchLogPruneRepository deletes old search log rows.
type SearchLogPruneRepository interface {
	DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchLogPruner removes search log entries older than the retention window.
type SearchLogPruner struct {
	repo      SearchLogPruneRepository
	retention time.Duration
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewSearchLogPruner creates a SearchLogPruner.
func NewSearchLogPruner(repo SearchLogPruneRepository, retention time.Duration, logger logrus.FieldLogger) *SearchLogPruner {
	return &SearchLogPruner{
		repo:      repo,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessJobs implements the JobProcessor interface
func (p *SearchLogPruner) ProcessJobs(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}

	cutoff := p.now().UTC().Add(-p.retention)
	deleted, err := p.repo.DeleteSearchLogsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune search logs: %w", err)
	}

	if deleted > 0 {
		p.logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("pruned search logs")
	}
	return nil
}
