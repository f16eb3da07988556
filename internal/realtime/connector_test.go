package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/techflow-ai/voiceagent/internal/tools"
)

func TestConnectPerformsConfigurationHandshake(t *testing.T) {
	type handshake struct {
		header http.Header
		model  string
		events []map[string]any
	}
	got := make(chan handshake, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var h handshake
		h.header = r.Header.Clone()
		h.model = r.URL.Query().Get("model")
		for i := 0; i < 2; i++ {
			var ev map[string]any
			if err := conn.ReadJSON(&ev); err != nil {
				t.Errorf("read handshake event %d: %v", i, err)
				return
			}
			h.events = append(h.events, ev)
		}
		got <- h
	}))
	defer srv.Close()

	c := NewOpenAIConnector(ConnectorConfig{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		APIKey:           "sk-test",
		HandshakeTimeout: 5 * time.Second,
	})
	up, err := c.Connect(context.Background(), AgentConfig{
		Model:        "gpt-4o-realtime-preview",
		Voice:        "shimmer",
		Instructions: "You are a sales agent.",
		Tools:        tools.Manifest(),
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer up.Close()

	var h handshake
	select {
	case h = <-got:
	case <-time.After(5 * time.Second):
		t.Fatalf("server never received the handshake")
	}

	if auth := h.header.Get("Authorization"); auth != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", auth)
	}
	if beta := h.header.Get("OpenAI-Beta"); beta != "realtime=v1" {
		t.Fatalf("OpenAI-Beta = %q", beta)
	}
	if h.model != "gpt-4o-realtime-preview" {
		t.Fatalf("model query param = %q", h.model)
	}

	update := h.events[0]
	if update["type"] != "session.update" {
		t.Fatalf("first handshake event = %v, want session.update", update["type"])
	}
	sess := update["session"].(map[string]any)
	if sess["voice"] != "shimmer" {
		t.Fatalf("voice = %v", sess["voice"])
	}
	if sess["input_audio_format"] != "pcm16" || sess["output_audio_format"] != "pcm16" {
		t.Fatalf("audio formats = %v / %v", sess["input_audio_format"], sess["output_audio_format"])
	}
	instructions, _ := sess["instructions"].(string)
	if !strings.HasPrefix(instructions, languagePreamble) {
		t.Fatalf("instructions missing language preamble: %q", instructions)
	}
	if !strings.HasSuffix(instructions, "You are a sales agent.") {
		t.Fatalf("agent instructions not carried through: %q", instructions)
	}
	vad := sess["turn_detection"].(map[string]any)
	if vad["type"] != "server_vad" || vad["threshold"] != 0.5 {
		t.Fatalf("turn detection = %v", vad)
	}
	if vad["prefix_padding_ms"] != float64(300) || vad["silence_duration_ms"] != float64(500) {
		t.Fatalf("vad timings = %v", vad)
	}
	if sess["tool_choice"] != "auto" {
		t.Fatalf("tool_choice = %v", sess["tool_choice"])
	}
	toolDefs := sess["tools"].([]any)
	if len(toolDefs) != len(tools.Manifest()) {
		t.Fatalf("len(tools) = %d, want %d", len(toolDefs), len(tools.Manifest()))
	}

	opening := h.events[1]
	if opening["type"] != "response.create" {
		t.Fatalf("second handshake event = %v, want response.create", opening["type"])
	}
	resp := opening["response"].(map[string]any)
	if inst, _ := resp["instructions"].(string); !strings.Contains(inst, "Sarah from TechFlow") {
		t.Fatalf("opening turn instructions = %q", inst)
	}
}

func TestConnectRejectsUnreachableUpstream(t *testing.T) {
	c := NewOpenAIConnector(ConnectorConfig{
		URL:              "ws://127.0.0.1:1",
		APIKey:           "sk-test",
		HandshakeTimeout: time.Second,
	})
	if _, err := c.Connect(context.Background(), AgentConfig{Model: "m"}); err == nil {
		t.Fatalf("Connect() to unreachable host should fail")
	}
}

func TestUpstreamConnReadsServerEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Drain the two handshake events, then send one session event.
		for i := 0; i < 2; i++ {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created"}`))
	}))
	defer srv.Close()

	c := NewOpenAIConnector(ConnectorConfig{
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		APIKey: "sk-test",
	})
	up, err := c.Connect(context.Background(), AgentConfig{Model: "m"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer up.Close()

	data, err := up.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(data) != `{"type":"session.created"}` {
		t.Fatalf("ReadMessage() = %s", data)
	}
}
