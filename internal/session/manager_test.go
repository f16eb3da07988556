package session

import (
	"errors"
	"testing"
)

func TestManagerOpenLookupClose(t *testing.T) {
	m := NewManager()
	s := m.Open("agent-1")
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}
	if s.Status != StatusConnecting {
		t.Fatalf("Status = %q, want %q", s.Status, StatusConnecting)
	}

	got, err := m.Lookup(s.ID)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.AgentID != "agent-1" {
		t.Fatalf("AgentID = %q, want %q", got.AgentID, "agent-1")
	}

	m.Close(s.ID)
	if _, err := m.Lookup(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup() after close error = %v, want ErrNotFound", err)
	}
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	m := NewManager()
	s := m.Open("agent-1")

	resources := 1
	if err := m.BindRelease(s.ID, func() { resources-- }); err != nil {
		t.Fatalf("BindRelease() error = %v", err)
	}

	m.Close(s.ID)
	m.Close(s.ID)
	m.Close("never-existed")

	if resources != 0 {
		t.Fatalf("resources = %d, want 0 (release must run exactly once)", resources)
	}
}

func TestManagerCloseHookFiresOnce(t *testing.T) {
	m := NewManager()
	fired := 0
	m.SetCloseHook(func(s *Session) {
		fired++
		if s.Status != StatusClosed {
			t.Errorf("hook Status = %q, want %q", s.Status, StatusClosed)
		}
	})

	s := m.Open("agent-1")
	m.Close(s.ID)
	m.Close(s.ID)
	if fired != 1 {
		t.Fatalf("close hook fired %d times, want 1", fired)
	}
}

func TestManagerErroredStatusSurvivesClose(t *testing.T) {
	m := NewManager()
	fired := false
	m.SetCloseHook(func(s *Session) {
		fired = true
		if s.Status != StatusErrored {
			t.Errorf("hook Status = %q, want %q", s.Status, StatusErrored)
		}
	})

	s := m.Open("agent-1")
	if err := m.SetStatus(s.ID, StatusErrored); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	m.Close(s.ID)
	if !fired {
		t.Fatalf("close hook did not fire")
	}
}

func TestManagerActiveCount(t *testing.T) {
	m := NewManager()
	a := m.Open("agent-1")
	b := m.Open("agent-2")
	if m.ActiveCount() != 2 {
		t.Fatalf("ActiveCount() = %d, want 2", m.ActiveCount())
	}
	m.Close(a.ID)
	m.Close(b.ID)
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", m.ActiveCount())
	}
}
