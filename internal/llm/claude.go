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
)

const anthropicURL = "https://api.anthropic.com"

// ClaudeClient calls the Anthropic Messages API to write documentation.
type ClaudeClient struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

func NewClaudeClient(apiKey, model string, timeout time.Duration) *ClaudeClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ClaudeClient{
		apiKey:    apiKey,
		model:     model,
		baseURL:   anthropicURL,
		maxTokens: 8192,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithBaseURL points the client at a different API host.
func (c *ClaudeClient) WithBaseURL(u string) *ClaudeClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt and returns the markdown answer.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: "anthropic", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &ProviderError{Provider: "anthropic", Message: "read response", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider: "anthropic",
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &ProviderError{Provider: "anthropic", Message: "decode response", Err: err}
	}
	if apiResp.Error != nil {
		return "", &ProviderError{
			Provider: "anthropic",
			Message:  apiResp.Error.Type + ": " + apiResp.Error.Message,
		}
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &ProviderError{Provider: "anthropic", Message: "empty response from LLM"}
	}
	return text, nil
}

// Model returns the configured model name.
func (c *ClaudeClient) Model() string {
	return c.model
}

// Close releases resources.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}
