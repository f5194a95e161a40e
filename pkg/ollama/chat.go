package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

// ChatClient implements llm.Completer using Ollama's non-streaming /api/chat.
type ChatClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewChatClient creates an Ollama chat client.
func NewChatClient(baseURL, model string) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatReq struct {
	Model    string         `json:"model"`
	Messages []llm.Message  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResp struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Complete implements llm.Completer.
func (c *ChatClient) Complete(ctx context.Context, r llm.Request) (string, error) {
	msgs := make([]llm.Message, 0, len(r.History)+2)
	if r.System != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: r.System})
	}
	msgs = append(msgs, r.History...)
	msgs = append(msgs, llm.Message{Role: "user", Content: r.Prompt})

	opts := map[string]any{"temperature": r.Temperature}
	if r.MaxTokens > 0 {
		opts["num_predict"] = r.MaxTokens
	}
	req := chatReq{Model: c.model, Messages: msgs, Options: opts}
	if r.JSON {
		req.Format = "json"
	}

	var result chatResp
	if err := postJSON(ctx, c.client, c.baseURL+"/api/chat", req, &result); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	out := strings.TrimSpace(result.Message.Content)
	if out == "" {
		return "", fmt.Errorf("ollama chat: %w", llm.ErrEmptyResponse)
	}
	return out, nil
}
