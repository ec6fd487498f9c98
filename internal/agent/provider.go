package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hyperagent/internal/logger"
)

const (
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = time.Second
)

// Provider produces one chat completion for the given conversation.
type Provider interface {
	Call(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error)
}

// HTTPProvider talks to an OpenAI-compatible chat completions endpoint.
type HTTPProvider struct {
	apiBase        string
	apiKey         string
	model          string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

func NewHTTPProvider(apiBase string, apiKey string, model string) *HTTPProvider {
	return &HTTPProvider{
		apiBase: apiBase,
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
	}
}

type chatCompletionRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *UsageInfo `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Call sends the conversation and retries transient failures with
// exponential backoff.
func (p *HTTPProvider) Call(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error) {
	reqBody := chatCompletionRequest{
		Model:    p.model,
		Messages: messages,
	}
	if len(tools) > 0 {
		reqBody.Tools = tools
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.apiBase + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryBaseDelay * time.Duration(1<<uint(attempt-1))
			logger.Info("Retrying LLM request (attempt %d/%d) after %v", attempt+1, p.maxRetries+1, delay)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := p.doRequest(ctx, url, bodyBytes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", p.maxRetries+1, lastErr)
}

func (p *HTTPProvider) doRequest(ctx context.Context, url string, bodyBytes []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBytes), 500))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON (%d bytes): %w", len(respBytes), err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error (type=%s, code=%s): %s",
			chatResp.Error.Type, chatResp.Error.Code, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("API returned no choices (model=%s)", chatResp.Model)
	}

	choice := chatResp.Choices[0]

	return &Response{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
		Usage:        chatResp.Usage,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
