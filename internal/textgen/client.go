// Package textgen is the optional text-generation collaborator.
//
// The engine consults it to seed command content and data-system schemas.
// It is strictly best-effort: a missing API key, an unreachable endpoint,
// or a malformed reply degrades to the caller's placeholder path and never
// blocks or fails a poll cycle.
package textgen

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

const (
	// DefaultURL is the default messages-API endpoint.
	DefaultURL = "https://api.anthropic.com"
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-3-5-haiku-latest"

	apiVersion   = "2023-06-01"
	maxTokens    = 1024
	requestLimit = 30 * time.Second
)

// Client talks to an Anthropic-compatible messages endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string

	httpClient *http.Client
}

// NewClient creates a client. Empty url and model fall back to the
// defaults; an empty apiKey leaves the client disabled.
func NewClient(url, apiKey, model string) *Client {
	if url == "" {
		url = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		BaseURL:    strings.TrimRight(url, "/"),
		APIKey:     apiKey,
		Model:      model,
		httpClient: &http.Client{Timeout: requestLimit},
	}
}

// Enabled reports whether the collaborator is configured. Callers must
// check this and take their placeholder path when it returns false.
func (c *Client) Enabled() bool {
	return c != nil && c.APIKey != ""
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Generate sends one user prompt and returns the concatenated text blocks
// of the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("textgen: no API key configured")
	}

	body, err := json.Marshal(messageRequest{
		Model:     c.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("textgen: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("textgen: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("textgen: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("textgen: status %d: %s", resp.StatusCode, string(detail))
	}

	var mr messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("textgen: decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("textgen: empty response")
	}
	return sb.String(), nil
}
