package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/techflow-ai/voiceagent/internal/agents"
	"github.com/techflow-ai/voiceagent/internal/tools"
)

type scriptedCompleter struct {
	mu      sync.Mutex
	replies []Message
	calls   [][]Message
	offered [][]tools.Schema
}

func (c *scriptedCompleter) Complete(_ context.Context, messages []Message, schemas []tools.Schema) (Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]Message(nil), messages...))
	c.offered = append(c.offered, schemas)
	if len(c.replies) == 0 {
		return Message{}, errors.New("no scripted reply")
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

type stubRunner struct {
	mu     sync.Mutex
	names  []string
	result string
}

func (r *stubRunner) Invoke(_ context.Context, name string, _ map[string]any) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	return r.result
}

func TestRespondPlainReply(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{replies: []Message{
		{Role: "assistant", Content: "We save you ten hours a week."},
	}}
	svc := NewService(agents.NewInMemoryStore(), completer, &stubRunner{})

	tr, err := svc.CreateSession(ctx, agents.DefaultAgentID)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	reply, err := svc.Respond(ctx, agents.DefaultAgentID, tr.ID, "what do you do?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "We save you ten hours a week." {
		t.Fatalf("reply = %q", reply)
	}

	first := completer.calls[0]
	if first[0].Role != "system" || first[0].Content == "" {
		t.Fatalf("first message should carry the agent instructions, got %+v", first[0])
	}
	if first[len(first)-1].Content != "what do you do?" {
		t.Fatalf("user message not in history: %+v", first)
	}
	if len(completer.offered[0]) != len(tools.Manifest()) {
		t.Fatalf("tool manifest not offered on first round")
	}

	got, err := svc.Session(tr.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != "assistant" {
		t.Fatalf("transcript = %+v", got.Messages)
	}
}

func TestRespondRunsToolRoundTrip(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{replies: []Message{
		{
			Role: "assistant",
			ToolCalls: []ToolCall{{
				ID:   "call-1",
				Type: "function",
				Function: FunctionCall{
					Name:      "check_availability",
					Arguments: `{"date":"2026-09-01"}`,
				},
			}},
		},
		{Role: "assistant", Content: "Tomorrow at 9am works."},
	}}
	runner := &stubRunner{result: `{"date":"2026-09-01","slots":[]}`}
	svc := NewService(agents.NewInMemoryStore(), completer, runner)

	reply, err := svc.Respond(ctx, agents.DefaultAgentID, "sess-1", "when are you free?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "Tomorrow at 9am works." {
		t.Fatalf("reply = %q", reply)
	}
	if len(runner.names) != 1 || runner.names[0] != "check_availability" {
		t.Fatalf("tool invocations = %v", runner.names)
	}

	if len(completer.calls) != 2 {
		t.Fatalf("completion rounds = %d, want 2", len(completer.calls))
	}
	second := completer.calls[1]
	last := second[len(second)-1]
	if last.Role != "tool" || last.ToolCallID != "call-1" {
		t.Fatalf("tool result message = %+v", last)
	}
	if last.Content != `{"date":"2026-09-01","slots":[]}` {
		t.Fatalf("tool result content = %q", last.Content)
	}
	if len(completer.offered[1]) != 0 {
		t.Fatalf("follow-up round should not offer tools")
	}
}

func TestRespondBadToolArgumentsStillAnswers(t *testing.T) {
	ctx := context.Background()
	completer := &scriptedCompleter{replies: []Message{
		{
			Role: "assistant",
			ToolCalls: []ToolCall{{
				ID:       "call-2",
				Type:     "function",
				Function: FunctionCall{Name: "book_meeting", Arguments: `{broken`},
			}},
		},
		{Role: "assistant", Content: "Sorry, let me try that again."},
	}}
	runner := &stubRunner{}
	svc := NewService(agents.NewInMemoryStore(), completer, runner)

	reply, err := svc.Respond(ctx, agents.DefaultAgentID, "sess-2", "book it")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply == "" {
		t.Fatalf("empty reply")
	}
	if len(runner.names) != 0 {
		t.Fatalf("runner should not see undecodable arguments, got %v", runner.names)
	}
}

func TestRespondUnknownAgent(t *testing.T) {
	svc := NewService(agents.NewInMemoryStore(), &scriptedCompleter{}, &stubRunner{})
	if _, err := svc.Respond(context.Background(), "nope", "s", "hi"); !errors.Is(err, agents.ErrNotFound) {
		t.Fatalf("Respond() error = %v, want ErrNotFound", err)
	}
}

func TestSessionsListsPerAgent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(agents.NewInMemoryStore(), &scriptedCompleter{}, &stubRunner{})

	a, _ := svc.CreateSession(ctx, agents.DefaultAgentID)
	b, _ := svc.CreateSession(ctx, agents.DefaultAgentID)

	if a.Messages == nil {
		t.Fatalf("fresh transcript has nil messages, want empty slice")
	}

	got := svc.Sessions(agents.DefaultAgentID)
	if len(got) != 2 {
		t.Fatalf("len(Sessions()) = %d, want 2", len(got))
	}
	seen := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !seen[a.ID] || !seen[b.ID] {
		t.Fatalf("Sessions() = %v and %v, want %v and %v", got[0].ID, got[1].ID, a.ID, b.ID)
	}
	if len(svc.Sessions("other")) != 0 {
		t.Fatalf("sessions leaked across agents")
	}
}
