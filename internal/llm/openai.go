package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arpanb/emissary/internal/httpkit"
)

// OpenAIClient is a client for any OpenAI-compatible chat completions
// endpoint (OpenAI itself, Gemini's compatibility layer, llama.cpp, etc).
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a client for the given endpoint. baseURL is the
// API root including the version prefix (e.g. "https://api.openai.com/v1").
func NewOpenAIClient(baseURL, apiKey string, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	// Providers can take a long time before sending headers (long prompts,
	// server-side queueing). Use a generous response header timeout and no
	// overall client timeout; callers control deadlines via ctx.
	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = 120 * time.Second

	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With("provider", "openai-compat"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(0),
			httpkit.WithTransport(t),
		),
	}
}

// OpenAI wire types.

type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []Message        `json:"messages"`
	Tools          []map[string]any `json:"tools,omitempty"`
	ResponseFormat *responseFormat  `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"` // "json_schema"
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict,omitempty"`
}

type chatCompletion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	return c.complete(ctx, chatRequest{
		Model:    model,
		Messages: messages,
		Tools:    tools,
	})
}

// ChatStructured sends a chat completion request constrained to schema.
func (c *OpenAIClient) ChatStructured(ctx context.Context, model string, messages []Message, schema ResponseSchema) (*ChatResponse, error) {
	return c.complete(ctx, chatRequest{
		Model:    model,
		Messages: messages,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   schema.Name,
				Schema: schema.Schema,
				Strict: schema.Strict,
			},
		},
	})
}

func (c *OpenAIClient) complete(ctx context.Context, req chatRequest) (*ChatResponse, error) {
	c.logger.Debug("preparing request",
		"model", req.Model,
		"messages", len(req.Messages),
		"tools", len(req.Tools),
		"structured", req.ResponseFormat != nil,
	)

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "request payload", "json", string(jsonData))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		c.logger.Error("API error", "status", resp.StatusCode, "body", errBody)
		return nil, fmt.Errorf("chat API error %d: %s", resp.StatusCode, errBody)
	}

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "response payload", "id", completion.ID)

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response: no choices")
	}

	choice := completion.Choices[0]
	return &ChatResponse{
		Model:        completion.Model,
		Message:      choice.Message,
		FinishReason: choice.FinishReason,
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
	}, nil
}

// Ping checks if the endpoint is reachable and the API key works.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("invalid API key")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
