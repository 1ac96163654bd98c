package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
)

// Search outcomes stored in the search log.
const (
	SearchStatusSucceeded = "succeeded"
	SearchStatusFailed    = "failed"
)

// SearchLogEntry captures one finished search.
type SearchLogEntry struct {
	ID           string
	SessionID    string
	Request      *domain.SearchRequest
	Raw          map[string]any
	Status       string
	ErrorCode    string
	ErrorMessage string
	ResultCount  int
	DurationMs   int
	ArchiveKey   string
	CreatedAt    time.Time
}

// SearchLogRepository persists the search log.
type SearchLogRepository interface {
	CreateSearchLog(ctx context.Context, entry SearchLogEntry) (string, error)
	ListRecentSearchLogs(ctx context.Context, limit int) ([]*SearchLogEntry, error)
	DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ResultArchiver stores raw scraper output.
type ResultArchiver interface {
	Archive(ctx context.Context, searchID string, format domain.OutputFormat, data []byte) (string, error)
}
