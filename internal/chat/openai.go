package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/techflow-ai/voiceagent/internal/tools"
)

// Message is one entry in a chat-completion conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// chatTool is the chat-completions wrapping of a tool schema; the realtime
// API takes the schema flat, the chat API nests it under "function".
type chatTool struct {
	Type     string      `json:"type"`
	Function functionDef `json:"function"`
}

type functionDef struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Parameters  tools.Parameters `json:"parameters"`
}

func wrapTools(schemas []tools.Schema) []chatTool {
	out := make([]chatTool, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, chatTool{
			Type: "function",
			Function: functionDef{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return out
}

type completionRequest struct {
	Model      string     `json:"model"`
	Messages   []Message  `json:"messages"`
	Tools      []chatTool `json:"tools,omitempty"`
	ToolChoice string     `json:"tool_choice,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type ClientConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls the OpenAI Chat Completions HTTP API.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete runs one completion round. When schemas is non-empty the model
// may answer with tool calls instead of content.
func (c *Client) Complete(ctx context.Context, messages []Message, schemas []tools.Schema) (Message, error) {
	req := completionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	if len(schemas) > 0 {
		req.Tools = wrapTools(schemas)
		req.ToolChoice = "auto"
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Message{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return Message{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return Message{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Message{}, fmt.Errorf("chat completion status %d: %s", res.StatusCode, string(body))
	}

	var out completionResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Message{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Message{}, fmt.Errorf("chat completion returned no choices")
	}
	return out.Choices[0].Message, nil
}
