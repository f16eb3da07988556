package agents

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps agents in process memory for local/dev use. A default
// sales agent is seeded on construction.
type InMemoryStore struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{agents: make(map[string]Agent)}
	seed := defaultAgent(time.Now().UTC())
	s.agents[seed.ID] = seed
	return s
}

func (s *InMemoryStore) List(_ context.Context) ([]Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Agent, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (s *InMemoryStore) Create(_ context.Context, name, description, instructions string) (Agent, error) {
	now := time.Now().UTC()
	a := Agent{
		ID:                 uuid.NewString(),
		Name:               name,
		Description:        description,
		SystemInstructions: instructions,
		Status:             StatusInactive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
	return a, nil
}

func (s *InMemoryStore) Update(_ context.Context, id string, upd Update) (Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Description != nil {
		a.Description = *upd.Description
	}
	if upd.SystemInstructions != nil {
		a.SystemInstructions = *upd.SystemInstructions
	}
	if upd.Status != nil {
		a.Status = *upd.Status
	}
	a.UpdatedAt = time.Now().UTC()
	s.agents[id] = a
	return a, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return ErrNotFound
	}
	delete(s.agents, id)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
