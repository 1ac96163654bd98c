package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogRepository stores one row per finished search.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

func (r *SearchLogRepository) CreateSearchLog(ctx context.Context, entry service.SearchLogEntry) (string, error) {
	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	params := entry.Raw
	if params == nil {
		params = map[string]any{}
	}
	// Proxy credentials never reach the database.
	if _, ok := params["proxies"]; ok {
		redacted := make(map[string]any, len(params))
		for k, v := range params {
			redacted[k] = v
		}
		redacted["proxies"] = "[redacted]"
		params = redacted
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode search params: %w", err)
	}

	sites := []string{}
	var searchTerm, location, format string
	if req := entry.Request; req != nil {
		for _, s := range req.Sites {
			sites = append(sites, string(s))
		}
		searchTerm = req.SearchTerm
		location = req.Location
		format = string(req.Format)
	}
	if format == "" {
		format = string(domain.FormatJSON)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO search_logs (id, session_id, params, sites, search_term, location, format,
		                          status, error_code, error_message, result_count, duration_ms, archive_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		id,
		nullableString(entry.SessionID),
		paramsJSON,
		sites,
		searchTerm,
		location,
		format,
		entry.Status,
		nullableString(entry.ErrorCode),
		nullableString(entry.ErrorMessage),
		entry.ResultCount,
		entry.DurationMs,
		nullableString(entry.ArchiveKey),
		createdAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert search log: %w", err)
	}
	return id, nil
}

// ListRecentSearchLogs returns the newest entries first.
func (r *SearchLogRepository) ListRecentSearchLogs(ctx context.Context, limit int) ([]*service.SearchLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, params, sites, search_term, location, format, status, error_code, error_message, result_count, duration_ms, archive_key, created_at
		 FROM search_logs
		 ORDER BY created_at DESC, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query search logs: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*service.SearchLogEntry, error) {
		var (
			e                                          service.SearchLogEntry
			sessionID, errCode, errMessage, archiveKey *string
			paramsJSON                                 []byte
			sites                                      []string
			req                                        domain.SearchRequest
			format                                     string
		)
		if err := row.Scan(&e.ID, &sessionID, &paramsJSON, &sites, &req.SearchTerm, &req.Location, &format,
			&e.Status, &errCode, &errMessage,
			&e.ResultCount, &e.DurationMs, &archiveKey, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(paramsJSON, &e.Raw); err != nil {
			return nil, fmt.Errorf("decode params of %s: %w", e.ID, err)
		}
		for _, site := range sites {
			req.Sites = append(req.Sites, domain.Site(site))
		}
		req.Format = domain.OutputFormat(format)
		e.Request = &req
		e.SessionID = deref(sessionID)
		e.ErrorCode = deref(errCode)
		e.ErrorMessage = deref(errMessage)
		e.ArchiveKey = deref(archiveKey)
		return &e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan search logs: %w", err)
	}
	return entries, nil
}

// DeleteSearchLogsBefore removes entries created before cutoff.
func (r *SearchLogRepository) DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete search logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
