//go:build integration

package openai

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_ExtractSearchParams_RealAPI(t *testing.T) {
	apiKey := os.Getenv("JOBSPY_OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("JOBSPY_OPENAI_API_KEY not set, skipping integration test")
	}

	client, err := NewClient(Config{APIKey: apiKey, Model: os.Getenv("JOBSPY_OPENAI_MODEL")})
	require.NoError(t, err)

	tests := []struct {
		query    string
		wantKeys []string
	}{
		{"senior golang developer jobs in Berlin", []string{"searchTerm", "location"}},
		{"remote contract data engineer roles posted in the last 24 hours", []string{"searchTerm", "isRemote", "hoursOld"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			params, err := client.ExtractSearchParams(ctx, tt.query)
			require.NoError(t, err)
			for _, key := range tt.wantKeys {
				assert.Contains(t, params, key)
			}
			for key := range params {
				assert.Contains(t, extractedFields, key)
			}
		})
	}
}
