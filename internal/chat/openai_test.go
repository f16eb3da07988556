package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/techflow-ai/voiceagent/internal/tools"
)

func TestCompleteSendsWrappedToolManifest(t *testing.T) {
	var captured completionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hi there"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, APIKey: "sk-chat", Model: "gpt-4o-mini"})
	reply, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "sell"},
		{Role: "user", Content: "hello"},
	}, tools.Manifest())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply.Content != "hi there" {
		t.Fatalf("reply = %+v", reply)
	}

	if auth != "Bearer sk-chat" {
		t.Fatalf("Authorization = %q", auth)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q", captured.Model)
	}
	if captured.ToolChoice != "auto" {
		t.Fatalf("tool_choice = %q", captured.ToolChoice)
	}
	if len(captured.Tools) != len(tools.Manifest()) {
		t.Fatalf("len(tools) = %d", len(captured.Tools))
	}
	first := captured.Tools[0]
	if first.Type != "function" || first.Function.Name == "" {
		t.Fatalf("tool wrapping = %+v", first)
	}
}

func TestCompleteOmitsToolsWhenNoneOffered(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, APIKey: "k", Model: "m"})
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, present := body["tools"]; present {
		t.Fatalf("tools field should be omitted: %v", body)
	}
	if _, present := body["tool_choice"]; present {
		t.Fatalf("tool_choice field should be omitted: %v", body)
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, APIKey: "k", Model: "m"})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
	if err == nil {
		t.Fatalf("Complete() should fail on a 429")
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, APIKey: "k", Model: "m"})
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "x"}}, nil); err == nil {
		t.Fatalf("Complete() should fail when no choices come back")
	}
}
