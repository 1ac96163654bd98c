//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
	"github.com/cloo-solutions/jobspy-mcp/internal/service"
	"github.com/cloo-solutions/jobspy-mcp/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchLogRepository(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewSearchLogRepository(pool)

	t.Run("create and list newest first", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		base := time.Now().UTC().Truncate(time.Microsecond)

		okID := uuid.NewString()
		id, err := repo.CreateSearchLog(ctx, service.SearchLogEntry{
			ID:        okID,
			SessionID: "session-1",
			Request: &domain.SearchRequest{
				Sites:      []domain.Site{domain.Site("indeed"), domain.Site("linkedin")},
				SearchTerm: "nurse",
				Location:   "Remote",
				Format:     domain.FormatJSON,
			},
			Raw:         map[string]any{"searchTerm": "nurse", "proxies": "user:pass@proxy:8080"},
			Status:      service.SearchStatusSucceeded,
			ResultCount: 5,
			DurationMs:  1500,
			ArchiveKey:  "searches/2024/03/01/" + okID + ".json",
			CreatedAt:   base.Add(-time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, okID, id)

		failedID, err := repo.CreateSearchLog(ctx, service.SearchLogEntry{
			Raw:          map[string]any{"format": "xml"},
			Status:       service.SearchStatusFailed,
			ErrorCode:    domain.ErrCodeValidation,
			ErrorMessage: "invalid search parameters: format: must be one of json, csv",
			CreatedAt:    base,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, failedID)

		entries, err := repo.ListRecentSearchLogs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, failedID, entries[0].ID)
		assert.Equal(t, domain.ErrCodeValidation, entries[0].ErrorCode)
		assert.Empty(t, entries[0].SessionID)

		assert.Equal(t, okID, entries[1].ID)
		assert.Equal(t, "session-1", entries[1].SessionID)
		assert.Equal(t, 5, entries[1].ResultCount)
		assert.Equal(t, "nurse", entries[1].Raw["searchTerm"])
		assert.Equal(t, "[redacted]", entries[1].Raw["proxies"])
		require.NotNil(t, entries[1].Request)
		assert.Equal(t, "indeed,linkedin", entries[1].Request.SiteSelector())
		assert.Equal(t, "Remote", entries[1].Request.Location)
		assert.Equal(t, domain.FormatJSON, entries[1].Request.Format)
		assert.True(t, entries[1].CreatedAt.Equal(base.Add(-time.Minute)))

		limited, err := repo.ListRecentSearchLogs(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("delete before cutoff", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))
		now := time.Now().UTC()

		for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
			_, err := repo.CreateSearchLog(ctx, service.SearchLogEntry{
				Status:    service.SearchStatusSucceeded,
				CreatedAt: now.Add(-age),
			})
			require.NoError(t, err)
		}

		deleted, err := repo.DeleteSearchLogsBefore(ctx, now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, err := repo.ListRecentSearchLogs(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}
