package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies client websocket payload variants.
type MessageType string

const (
	TypeAudio       MessageType = "audio"
	TypeAudioCommit MessageType = "audio_commit"
	TypeText        MessageType = "text"
	TypeCancel      MessageType = "cancel"

	// Server-originated synthetic events.
	TypeSessionInfo MessageType = "session.info"
	TypeError       MessageType = "error"
)

var ErrMalformed = errors.New("malformed client message")

// ClientMessage is one decoded inbound frame. Types the bridge does not
// specialize keep their raw payload and are forwarded upstream verbatim.
type ClientMessage struct {
	Type  MessageType
	Audio string
	Text  string
	Raw   json.RawMessage
}

type clientEnvelope struct {
	Type  MessageType `json:"type"`
	Audio string      `json:"audio"`
	Text  string      `json:"text"`
}

// ParseClientMessage decodes a raw client frame. A frame that is not a JSON
// object with a string type tag is malformed.
func ParseClientMessage(raw []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return ClientMessage{
		Type:  env.Type,
		Audio: env.Audio,
		Text:  env.Text,
		Raw:   json.RawMessage(raw),
	}, nil
}

// SessionInfo is sent to the client once at session start.
type SessionInfo struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	AgentID   string      `json:"agent_id"`
}

func NewSessionInfo(sessionID, agentID string) SessionInfo {
	return SessionInfo{Type: TypeSessionInfo, SessionID: sessionID, AgentID: agentID}
}

// ErrorEvent is the single terminal error surfaced on any fatal condition.
type ErrorEvent struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

func NewErrorEvent(detail string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Error: detail}
}
