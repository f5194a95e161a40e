// Package openai implements llm.Embedder and llm.Completer against any
// OpenAI-compatible HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Client talks to /embeddings and /chat/completions.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	http       *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client.
func New(apiKey, chatModel, embedModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type embeddingsReq struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResp struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements llm.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out embeddingsResp
	if err := c.post(ctx, "/embeddings", embeddingsReq{Model: c.embedModel, Input: text}, &out); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("openai embed: %w", llm.ErrEmptyResponse)
	}
	return out.Data[0].Embedding, nil
}

type chatReq struct {
	Model          string         `json:"model"`
	Messages       []llm.Message  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResp struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

// Complete implements llm.Completer.
func (c *Client) Complete(ctx context.Context, r llm.Request) (string, error) {
	msgs := make([]llm.Message, 0, len(r.History)+2)
	if r.System != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: r.System})
	}
	msgs = append(msgs, r.History...)
	msgs = append(msgs, llm.Message{Role: "user", Content: r.Prompt})

	req := chatReq{Model: c.chatModel, Messages: msgs, Temperature: r.Temperature, MaxTokens: r.MaxTokens}
	if r.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var out chatResp
	if err := c.post(ctx, "/chat/completions", req, &out); err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai chat: %w", llm.ErrEmptyResponse)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// IsAPIError reports whether err is an API error with the given status.
func IsAPIError(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}
