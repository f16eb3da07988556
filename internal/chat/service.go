package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techflow-ai/voiceagent/internal/agents"
	"github.com/techflow-ai/voiceagent/internal/tools"
)

// Completer runs one chat-completion round.
type Completer interface {
	Complete(ctx context.Context, messages []Message, schemas []tools.Schema) (Message, error)
}

// ToolRunner executes a named tool and returns its JSON result.
type ToolRunner interface {
	Invoke(ctx context.Context, name string, args map[string]any) string
}

// TranscriptMessage is one stored turn of a text conversation.
type TranscriptMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is the in-memory record of one text chat session. Transcripts
// do not survive a restart.
type Transcript struct {
	ID        string              `json:"id"`
	AgentID   string              `json:"agent_id"`
	Messages  []TranscriptMessage `json:"messages"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// Service drives text conversations with an agent, including the tool
// round-trip: when the model requests tools, their results are fed back and
// a follow-up completion produces the user-facing reply.
type Service struct {
	agents    agents.Store
	completer Completer
	runner    ToolRunner

	mu       sync.Mutex
	sessions map[string]*Transcript
}

func NewService(store agents.Store, completer Completer, runner ToolRunner) *Service {
	return &Service{
		agents:    store,
		completer: completer,
		runner:    runner,
		sessions:  make(map[string]*Transcript),
	}
}

// CreateSession opens a new transcript bound to an existing agent.
func (s *Service) CreateSession(ctx context.Context, agentID string) (Transcript, error) {
	if _, err := s.agents.Get(ctx, agentID); err != nil {
		return Transcript{}, err
	}
	tr := &Transcript{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		Messages:  []TranscriptMessage{},
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[tr.ID] = tr
	s.mu.Unlock()
	return cloneTranscript(tr), nil
}

// Session returns a copy of one transcript.
func (s *Service) Session(sessionID string) (Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.sessions[sessionID]
	if !ok {
		return Transcript{}, agents.ErrNotFound
	}
	return cloneTranscript(tr), nil
}

// Sessions lists transcripts for one agent, oldest first.
func (s *Service) Sessions(agentID string) []Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transcript, 0)
	for _, tr := range s.sessions {
		if tr.AgentID == agentID {
			out = append(out, cloneTranscript(tr))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Respond records the user message, runs the model (with a tool round-trip
// when requested), records the reply, and returns it. An unknown session id
// starts a fresh transcript, matching how the web client retries.
func (s *Service) Respond(ctx context.Context, agentID, sessionID, userMessage string) (string, error) {
	agent, err := s.agents.Get(ctx, agentID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	tr, ok := s.sessions[sessionID]
	if !ok {
		tr = &Transcript{
			ID:        sessionID,
			AgentID:   agentID,
			Status:    "active",
			CreatedAt: time.Now().UTC(),
		}
		s.sessions[tr.ID] = tr
	}
	tr.Messages = append(tr.Messages, TranscriptMessage{
		Role: "user", Content: userMessage, Timestamp: time.Now().UTC(),
	})
	history := make([]Message, 0, len(tr.Messages)+1)
	history = append(history, Message{Role: "system", Content: agent.SystemInstructions})
	for _, m := range tr.Messages {
		history = append(history, Message{Role: m.Role, Content: m.Content})
	}
	s.mu.Unlock()

	reply, err := s.completer.Complete(ctx, history, tools.Manifest())
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(reply.ToolCalls) > 0 {
		history = append(history, reply)
		for _, call := range reply.ToolCalls {
			history = append(history, Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    s.runTool(ctx, sessionID, call),
			})
		}
		// The follow-up turn turns tool results into a user-facing reply;
		// no tools are offered so it must answer in text.
		reply, err = s.completer.Complete(ctx, history, nil)
		if err != nil {
			return "", fmt.Errorf("post-tool completion: %w", err)
		}
	}

	s.mu.Lock()
	tr.Messages = append(tr.Messages, TranscriptMessage{
		Role: "assistant", Content: reply.Content, Timestamp: time.Now().UTC(),
	})
	s.mu.Unlock()
	return reply.Content, nil
}

func (s *Service) runTool(ctx context.Context, sessionID string, call ToolCall) string {
	var args map[string]any
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			payload, _ := json.Marshal(map[string]string{
				"error": "invalid tool arguments for " + call.Function.Name,
			})
			return string(payload)
		}
	}
	log.Printf("chat %s: tool call %s(%s)", sessionID, call.Function.Name, call.Function.Arguments)
	return s.runner.Invoke(ctx, call.Function.Name, args)
}

func cloneTranscript(tr *Transcript) Transcript {
	out := *tr
	out.Messages = make([]TranscriptMessage, len(tr.Messages))
	copy(out.Messages, tr.Messages)
	return out
}
