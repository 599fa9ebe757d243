// Package llm wraps an OpenAI-compatible chat completion endpoint behind the
// minimal Call interface the extraction pipeline needs, including recovery of
// JSON payloads from noisy model output.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client is the LLM collaborator interface consumed by the pipeline. Call
// sends a prompt plus content and returns the parsed JSON payload from the
// response, or an error if no JSON object/array can be located.
type Client interface {
	Call(ctx context.Context, prompt, content string) (json.RawMessage, error)
	Name() string
}

const systemPrompt = `You are an expert at analyzing IELTS exam content.
You can accurately identify and extract:
- Reading passages with their titles and content
- Question types (MCQ, TFNG, YES_NO_NOTGIVEN, FILL_BLANK, MATCHING, SHORT_ANSWER, LABELING)
- Questions with their numbers and content
- Correct answers for each question

Be precise and thorough in your extraction.

IMPORTANT: Always respond with valid JSON only. No markdown, no explanations outside JSON.`

// Config holds configuration for the OpenAI-compatible client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string // Optional: Gemini/OpenRouter OpenAI-compatible endpoints
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client // Optional (tests)
}

// OpenAIClient implements Client using the official OpenAI SDK. It runs with
// temperature 0 so repeated extractions of the same page stay comparable.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a client from cfg.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string { return "openai" }

// Call sends the prompt and content as a single chat turn and parses the
// JSON payload out of the response.
func (c *OpenAIClient) Call(ctx context.Context, prompt, content string) (json.RawMessage, error) {
	user := prompt
	if content != "" {
		user = fmt.Sprintf("%s\n\n---\n\nCONTENT TO ANALYZE:\n\n%s", prompt, content)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
		Temperature:         openai.Float(0),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	return ParseJSONResponse(resp.Choices[0].Message.Content)
}

var _ Client = (*OpenAIClient)(nil)
