package openai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatAPI is a mock for the chat completions API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func TestClient_ExtractSearchParams_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := NewClientWithAPI(mockAPI)

	ctx := context.Background()
	mockAPI.On("CompleteJSON", ctx, extractionInstructions, "remote nurse jobs in Austin posted this week").
		Return(`{"searchTerm":"nurse","location":"Austin, TX","isRemote":true,"hoursOld":168,"salary":"high","jobType":null}`, nil)

	params, err := client.ExtractSearchParams(ctx, "  remote nurse jobs in Austin posted this week ")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"searchTerm": "nurse",
		"location":   "Austin, TX",
		"isRemote":   true,
		"hoursOld":   json.Number("168"),
	}, params)
	mockAPI.AssertExpectations(t)
}

func TestClient_ExtractSearchParams_EmptyQuery(t *testing.T) {
	client := NewClientWithAPI(new(MockChatAPI))

	params, err := client.ExtractSearchParams(context.Background(), "   ")

	assert.Nil(t, params)
	assert.Equal(t, ErrEmptyQuery, err)
}

func TestClient_ExtractSearchParams_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	mockAPI.On("CompleteJSON", mock.Anything, mock.Anything, "nurse").Return("", errors.New("API rate limit exceeded"))

	params, err := NewClientWithAPI(mockAPI).ExtractSearchParams(context.Background(), "nurse")

	assert.Nil(t, params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract search parameters")
	assert.Contains(t, err.Error(), "rate limit")
}

func TestClient_ExtractSearchParams_InvalidJSON(t *testing.T) {
	mockAPI := new(MockChatAPI)
	mockAPI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything).Return("Sure! Here are the parameters", nil)

	_, err := NewClientWithAPI(mockAPI).ExtractSearchParams(context.Background(), "nurse")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{APIKey: "test-api-key"})
	require.NoError(t, err)
	require.NotNil(t, client)

	adapter, ok := client.api.(*OpenAIAdapter)
	require.True(t, ok)
	assert.Equal(t, DefaultModel, adapter.model)

	_, err = NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
