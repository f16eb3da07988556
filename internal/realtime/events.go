package realtime

import "github.com/techflow-ai/voiceagent/internal/tools"

// Upstream wire event types the bridge emits or reacts to.
const (
	eventSessionUpdate          = "session.update"
	eventResponseCreate         = "response.create"
	eventResponseCancel         = "response.cancel"
	eventConversationItemCreate = "conversation.item.create"
	eventInputAudioBufferAppend = "input_audio_buffer.append"
	eventInputAudioBufferCommit = "input_audio_buffer.commit"
	eventFunctionCallArgsDone   = "response.function_call_arguments.done"
)

// clientForwardable is the fixed allow-list of upstream event types that may
// reach the client. Everything else is consumed and discarded: internal
// upstream bookkeeping never crosses this boundary.
var clientForwardable = map[string]bool{
	"session.created":                   true,
	"session.updated":                   true,
	"response.audio.delta":              true,
	"response.audio.done":               true,
	"response.audio_transcript.delta":   true,
	"response.audio_transcript.done":    true,
	"response.text.delta":               true,
	"response.text.done":                true,
	"input_audio_buffer.speech_started": true,
	"input_audio_buffer.speech_stopped": true,
	"conversation.item.input_audio_transcription.completed": true,
	"response.done": true,
	"error":         true,
}

// upstreamEnvelope carries the fields the bridge inspects on every inbound
// upstream event; the rest of the payload stays raw.
type upstreamEnvelope struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	CallID    string `json:"call_id"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities              []string             `json:"modalities"`
	Instructions            string               `json:"instructions"`
	Voice                   string               `json:"voice"`
	InputAudioFormat        string               `json:"input_audio_format"`
	OutputAudioFormat       string               `json:"output_audio_format"`
	InputAudioTranscription *transcriptionConfig `json:"input_audio_transcription,omitempty"`
	TurnDetection           *turnDetection       `json:"turn_detection,omitempty"`
	Tools                   []tools.Schema       `json:"tools"`
	ToolChoice              string               `json:"tool_choice"`
}

type transcriptionConfig struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type responseCreate struct {
	Type     string          `json:"type"`
	Response *responseParams `json:"response,omitempty"`
}

type responseParams struct {
	Modalities   []string `json:"modalities,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

type conversationItemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []itemContent `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type audioBufferAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type typeOnly struct {
	Type string `json:"type"`
}
