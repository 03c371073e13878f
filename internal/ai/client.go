package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to an Ollama server's /api/chat endpoint.
type Client struct {
	httpClient *http.Client
	host       string
	model      string
	maxTokens  int
	temp       float64
}

func NewClient(host, model string, maxTokens int, temperature float64) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		host:       host,
		model:      model,
		maxTokens:  maxTokens,
		temp:       temperature,
	}
}

func (c *Client) Model() string { return c.model }

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message         ChatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// ChatResult carries the model's reply plus token accounting for the
// usage aggregates.
type ChatResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Chat sends a non-streaming chat completion request.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatResult, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"num_predict": c.maxTokens,
			"temperature": c.temp,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}

	return &ChatResult{
		Content:      parsed.Message.Content,
		InputTokens:  parsed.PromptEvalCount,
		OutputTokens: parsed.EvalCount,
	}, nil
}
