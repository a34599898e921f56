// Package chatapi is the shared client for OpenAI-style chat completion
// APIs. The OpenAI and vLLM providers differ only in base URL, defaults
// and whether a bearer token is sent, so both delegate the wire work
// here.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Client speaks the /chat/completions and /models endpoints of one
// OpenAI-compatible server. label prefixes error messages so failures
// name the provider, not this package.
type Client struct {
	http    *http.Client
	label   string
	baseURL string
	apiKey  string
	model   string
}

// New creates a client. apiKey may be empty for servers that do not
// authenticate.
func New(label, baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		label:   label,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete runs a single-turn chat completion and returns the assistant
// message content.
func (c *Client) Complete(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	payload := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		MaxTokens   int           `json:"max_tokens,omitempty"`
		Temperature float64       `json:"temperature,omitempty"`
		Seed        int           `json:"seed,omitempty"`
		Stop        []string      `json:"stop,omitempty"`
	}{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Seed:        opts.Seed,
		Stop:        opts.StopWords,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s chat request: %w", c.label, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error,omitempty"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s: %s (%s)", c.label, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: status %d: %s", c.label, resp.StatusCode, string(raw))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: no completion choices returned", c.label)
	}
	return parsed.Choices[0].Message.Content, nil
}

// HealthCheck probes /models, which answers without running inference
// and exercises authentication when a key is set.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create health request: %w", c.label, err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: unreachable: %w", c.label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", c.label, resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
