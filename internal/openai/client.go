package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used to read search queries.
const DefaultModel = openai.GPT4oMini

var (
	// ErrEmptyQuery is returned when the query is blank
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrNoAPIKey is returned when no OpenAI API key is configured
	ErrNoAPIKey = errors.New("OpenAI API key not set")
	// ErrNoChoices is returned when the model produced no answer
	ErrNoChoices = errors.New("no completion choices returned")
)

// extractedFields are the search_jobs arguments the model may fill in.
var extractedFields = []string{
	"searchTerm", "location", "siteNames", "jobType", "isRemote", "hoursOld", "resultsWanted", "distance",
}

const extractionInstructions = `You extract job search parameters from a natural language query.
Answer with a single JSON object using only these keys, and omit keys the query does not mention:
- searchTerm (string): job title or keywords
- location (string): city and state or country; "Remote" for remote work
- siteNames (string): comma-separated subset of indeed,linkedin,zip_recruiter,glassdoor,google,bayt,naukri
- jobType (string): one of fulltime, parttime, internship, contract
- isRemote (boolean)
- hoursOld (integer): maximum posting age in hours
- resultsWanted (integer)
- distance (integer): radius in miles`

// ChatAPI completes one JSON-mode chat exchange.
type ChatAPI interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// Client turns natural language queries into search_jobs arguments.
type Client struct {
	api ChatAPI
}

type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

func NewOpenAIAdapter(apiKey, model string) *OpenAIAdapter {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CompleteJSON calls the chat completions API in JSON object mode.
func (a *OpenAIAdapter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey string
	Model  string
}

// NewClient creates a new OpenAI client with explicit configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Client{api: NewOpenAIAdapter(cfg.APIKey, cfg.Model)}, nil
}

// NewClientWithAPI creates a client backed by api.
func NewClientWithAPI(api ChatAPI) *Client {
	return &Client{api: api}
}

// ExtractSearchParams asks the model for search arguments matching query.
// Keys outside the search_jobs schema are dropped; values are left for the
// request validator to check.
func (c *Client) ExtractSearchParams(ctx context.Context, query string) (map[string]any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	content, err := c.api.CompleteJSON(ctx, extractionInstructions, query)
	if err != nil {
		return nil, fmt.Errorf("failed to extract search parameters: %w", err)
	}

	var answer map[string]any
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&answer); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	params := make(map[string]any, len(extractedFields))
	for _, key := range extractedFields {
		if v, ok := answer[key]; ok && v != nil {
			params[key] = v
		}
	}
	return params, nil
}
