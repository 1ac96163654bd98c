package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/api"
	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Searcher runs a job search.
type Searcher interface {
	Search(ctx context.Context, raw map[string]any, call service.CallInfo) (*domain.SearchResponse, error)
}

// SearchHistory lists recent searches.
type SearchHistory interface {
	ListRecentSearchLogs(ctx context.Context, limit int) ([]*service.SearchLogEntry, error)
}

type SearchHandler struct {
	svc     Searcher
	history SearchHistory
}

// NewSearchHandler creates a SearchHandler. history may be nil when no
// database is configured.
func NewSearchHandler(svc Searcher, history SearchHistory) *SearchHandler {
	return &SearchHandler{svc: svc, history: history}
}

type SearchLogResponse struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	Sites        []string       `json:"sites,omitempty"`
	SearchTerm   string         `json:"search_term,omitempty"`
	Location     string         `json:"location,omitempty"`
	Status       string         `json:"status"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ResultCount  int            `json:"result_count"`
	DurationMs   int            `json:"duration_ms"`
	ArchiveKey   string         `json:"archive_key,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

// Search handles POST /api: the search_jobs arguments as a JSON object,
// answered with the SearchResponse body.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if raw == nil {
		raw = map[string]any{}
	}

	resp, err := h.svc.Search(r.Context(), raw, service.CallInfo{})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, resp)
}

// History handles GET /api/searches.
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		api.Error(w, http.StatusServiceUnavailable, "search history requires a database")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			api.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.history.ListRecentSearchLogs(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]SearchLogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, NewSearchLogResponse(e))
	}

	api.Success(w, http.StatusOK, resp)
}

// NewSearchLogResponse converts a search log entry to its API form.
func NewSearchLogResponse(e *service.SearchLogEntry) SearchLogResponse {
	item := SearchLogResponse{
		ID:           e.ID,
		SessionID:    e.SessionID,
		Params:       e.Raw,
		Status:       e.Status,
		ErrorCode:    e.ErrorCode,
		ErrorMessage: e.ErrorMessage,
		ResultCount:  e.ResultCount,
		DurationMs:   e.DurationMs,
		ArchiveKey:   e.ArchiveKey,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.Request != nil {
		for _, site := range e.Request.Sites {
			item.Sites = append(item.Sites, string(site))
		}
		item.SearchTerm = e.Request.SearchTerm
		item.Location = e.Request.Location
	}
	return item
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
