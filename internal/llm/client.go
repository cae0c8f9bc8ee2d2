// Package llm provides a minimal chat-completions client for
// OpenAI-compatible providers. The gateway only needs single-shot
// completions, so there is no streaming or tool support.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finadvisor/internal/models"
	"finadvisor/internal/version"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports the provider's token accounting for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Options tunes a single completion call. Nil fields fall back to the
// provider defaults.
type Options struct {
	Temperature *float64
	MaxTokens   *int
}

// Client talks to an OpenAI-compatible chat-completions endpoint via
// direct HTTP.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client

	// Call defaults from config, applied when per-call Options leave
	// the matching field unset.
	defaultTemperature *float64
	defaultMaxTokens   *int
}

// NewClient returns a client configured from the LLM section of the
// process config, with defaults applied.
func NewClient(cfg models.LLMConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	if cfg.Temperature > 0 {
		temperature := cfg.Temperature
		c.defaultTemperature = &temperature
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		c.defaultMaxTokens = &maxTokens
	}

	return c
}

// ModelName returns the model the client sends completions to.
func (c *Client) ModelName() string {
	return c.Model
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type choice struct {
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Content string `json:"content"`
}

// Complete sends a chat completion request and returns the first choice's
// text. The returned Usage is zero when the provider omits it.
func (c *Client) Complete(ctx context.Context, messages []Message, opts *Options) (string, Usage, error) {
	if c == nil {
		return "", Usage{}, fmt.Errorf("llm client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return "", Usage{}, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return "", Usage{}, fmt.Errorf("model is required")
	}
	if len(messages) == 0 {
		return "", Usage{}, fmt.Errorf("messages are required")
	}

	payload := &chatCompletionRequest{
		Model:       c.Model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: c.defaultTemperature,
		MaxTokens:   c.defaultMaxTokens,
	}
	for _, msg := range messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	if opts != nil {
		if opts.Temperature != nil {
			payload.Temperature = opts.Temperature
		}
		if opts.MaxTokens != nil {
			payload.MaxTokens = opts.MaxTokens
		}
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", Usage{}, fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", Usage{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", Usage{}, &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", Usage{}, fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("empty response choices")
	}

	usage := Usage{}
	if parsed.Usage != nil {
		usage = *parsed.Usage
	}

	return parsed.Choices[0].Message.Content, usage, nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
