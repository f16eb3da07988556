package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/techflow-ai/voiceagent/internal/tools"
)

// languagePreamble pins the voice output language regardless of whatever
// instructions the agent was configured with.
const languagePreamble = "IMPORTANT: Always respond in English only.\n\n"

// openingInstruction makes every call model-initiated instead of waiting
// for the caller to speak first.
const openingInstruction = "Start the call with your sales pitch. Say: Hi! This is Sarah from TechFlow. I'm reaching out because we help businesses save 10+ hours every week with AI automation. Quick question - are you handling a lot of repetitive tasks in your work right now?"

// AgentConfig is the read-only per-session snapshot of an agent's voice
// configuration. It is taken at session start and never mutated afterwards.
type AgentConfig struct {
	Model        string
	Voice        string
	Instructions string
	Tools        []tools.Schema
}

// UpstreamConn is one configured connection to the voice-model service.
// Reads belong exclusively to the upstream relay loop; writes are
// serialized internally so both relay directions may send.
type UpstreamConn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Connector establishes and configures the upstream leg of one session.
type Connector interface {
	Connect(ctx context.Context, cfg AgentConfig) (UpstreamConn, error)
}

type ConnectorConfig struct {
	URL              string
	APIKey           string
	HandshakeTimeout time.Duration
}

// OpenAIConnector dials the OpenAI Realtime websocket and performs the
// one-time session.update handshake before any conversation events flow.
type OpenAIConnector struct {
	cfg ConnectorConfig
}

func NewOpenAIConnector(cfg ConnectorConfig) *OpenAIConnector {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = "wss://api.openai.com/v1/realtime"
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}
	return &OpenAIConnector{cfg: cfg}
}

func (c *OpenAIConnector) Connect(ctx context.Context, agent AgentConfig) (UpstreamConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("model", agent.Model)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("dial realtime websocket: %w", err)
	}

	up := &wsUpstream{conn: conn}
	if err := configureSession(up, agent); err != nil {
		_ = up.Close()
		return nil, err
	}
	return up, nil
}

// configureSession sends the one-time configuration handshake followed by
// the model-initiated opening turn.
func configureSession(up UpstreamConn, agent AgentConfig) error {
	update := sessionUpdate{
		Type: eventSessionUpdate,
		Session: sessionConfig{
			Modalities:              []string{"text", "audio"},
			Instructions:            languagePreamble + agent.Instructions,
			Voice:                   agent.Voice,
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			InputAudioTranscription: &transcriptionConfig{Model: "whisper-1"},
			TurnDetection: &turnDetection{
				Type:              "server_vad",
				Threshold:         0.5,
				PrefixPaddingMs:   300,
				SilenceDurationMs: 500,
			},
			Tools:      agent.Tools,
			ToolChoice: "auto",
		},
	}
	if err := up.WriteJSON(update); err != nil {
		return fmt.Errorf("configure session: %w", err)
	}

	opening := responseCreate{
		Type: eventResponseCreate,
		Response: &responseParams{
			Modalities:   []string{"text", "audio"},
			Instructions: openingInstruction,
		},
	}
	if err := up.WriteJSON(opening); err != nil {
		return fmt.Errorf("request opening turn: %w", err)
	}
	return nil
}

// wsUpstream wraps a websocket connection with per-socket write
// serialization and idempotent close.
type wsUpstream struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsUpstream) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsUpstream) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsUpstream) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
