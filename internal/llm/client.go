// Package llm implements the outbound completion proxy: it forwards a
// prompt to a configured upstream completions endpoint and returns the text
// with an estimated token count. No internal logic beyond the round trip.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dukaforge/sheetledger/pkg/types"
)

// defaultTimeout bounds the upstream round trip when the config does not.
const defaultTimeout = 30 * time.Second

// ErrUpstream reports a failed or non-2xx upstream call.
var ErrUpstream = errors.New("completion upstream failed")

// Client talks to one OpenAI-style completions endpoint. Construct once and
// reuse; the embedded http.Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	log        *zap.Logger
}

// Completion is the proxied result.
type Completion struct {
	Text string `json:"text"`
	// TokensUsed is the upstream's usage count when reported, otherwise the
	// local estimate over prompt plus completion.
	TokensUsed int64 `json:"tokens_used"`
}

// New builds a Client from cfg. TimeoutSeconds defaults to 30.
func New(cfg types.LLMConfig, log *zap.Logger) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		log:        log,
	}
}

type completionRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Choices []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Complete forwards prompt to the upstream and returns the completion. No
// retry: the caller sees the failure and may retry at its discretion.
func (c *Client) Complete(ctx context.Context, prompt string) (*Completion, error) {
	body, err := json.Marshal(completionRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling upstream: %w", errors.Join(ErrUpstream, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, payload)
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", errors.Join(ErrUpstream, err))
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrUpstream)
	}

	text := decoded.Choices[0].Text
	if text == "" {
		text = decoded.Choices[0].Message.Content
	}

	tokens := decoded.Usage.TotalTokens
	if tokens <= 0 {
		tokens = EstimateTokens(prompt) + EstimateTokens(text)
	}
	c.log.Debug("completion proxied", zap.Int64("tokens", tokens))
	return &Completion{Text: text, TokensUsed: tokens}, nil
}

// EstimateTokens approximates the token cost of text as one token per four
// bytes, with a floor of one. Used when the upstream reports no usage.
func EstimateTokens(text string) int64 {
	n := int64(len(text)) / 4
	if n < 1 {
		n = 1
	}
	return n
}
