package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"examforge_backend/internal/config"
	"examforge_backend/pkg/monitoring"
)

// GatewayErrorKind classifies upstream completion failures so each call site
// can apply its own fallback policy instead of aborting the batch.
type GatewayErrorKind string

const (
	GatewayRateLimited    GatewayErrorKind = "rate_limited"
	GatewayQuotaExhausted GatewayErrorKind = "quota_exhausted"
	GatewayUnavailable    GatewayErrorKind = "unavailable"
	GatewayTransport      GatewayErrorKind = "transport"
)

type GatewayError struct {
	Kind       GatewayErrorKind
	StatusCode int
	Message    string
	Wrapped    error
}

func (e *GatewayError) Error() string {
	base := fmt.Sprintf("AI gateway error [%s]", e.Kind)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.Wrapped != nil {
		base += fmt.Sprintf(": %v", e.Wrapped)
	}
	return base
}

func (e *GatewayError) Unwrap() error { return e.Wrapped }

func classifyStatus(statusCode int, body string) *GatewayError {
	kind := GatewayUnavailable
	switch statusCode {
	case http.StatusTooManyRequests:
		kind = GatewayRateLimited
	case http.StatusPaymentRequired:
		kind = GatewayQuotaExhausted
	}
	return &GatewayError{Kind: kind, StatusCode: statusCode, Message: body}
}

// CompletionOptions carries the per-call sampling parameters. Drafting runs
// hot for variety, auditing cold for consistency, regeneration hottest to
// diverge from the prior question.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AIGateway issues chat-completion requests against the configured model
// endpoint. Every failure comes back as a *GatewayError; it never panics and
// never retries (retry policy belongs to the orchestrators).
type AIGateway struct {
	cfg    config.AIConfig
	client *http.Client
}

func NewAIGateway(cfg config.AIConfig) *AIGateway {
	return &AIGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (g *AIGateway) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	reqBody := chatCompletionRequest{
		Model:       g.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &GatewayError{Kind: GatewayTransport, Wrapped: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &GatewayError{Kind: GatewayTransport, Wrapped: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		monitoring.GatewayErrors.WithLabelValues(string(GatewayTransport)).Inc()
		return "", &GatewayError{Kind: GatewayTransport, Wrapped: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		gerr := classifyStatus(resp.StatusCode, string(body))
		monitoring.GatewayErrors.WithLabelValues(string(gerr.Kind)).Inc()
		return "", gerr
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &GatewayError{Kind: GatewayTransport, Message: "malformed completion response", Wrapped: err}
	}
	if result.Error != nil {
		return "", &GatewayError{Kind: GatewayUnavailable, Message: result.Error.Message}
	}
	if len(result.Choices) == 0 {
		return "", &GatewayError{Kind: GatewayUnavailable, Message: "no response choices returned"}
	}

	return result.Choices[0].Message.Content, nil
}
