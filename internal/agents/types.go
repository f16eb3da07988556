package agents

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusTesting  Status = "testing"
)

var ErrNotFound = errors.New("agent not found")

// Agent is one configurable AI caller persona.
type Agent struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	SystemInstructions string    `json:"system_instructions"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Update carries partial agent updates; nil fields are left unchanged.
type Update struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	SystemInstructions *string `json:"system_instructions"`
	Status             *Status `json:"status"`
}

// Store persists agent definitions.
type Store interface {
	List(ctx context.Context) ([]Agent, error)
	Get(ctx context.Context, id string) (Agent, error)
	Create(ctx context.Context, name, description, instructions string) (Agent, error)
	Update(ctx context.Context, id string, upd Update) (Agent, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// DefaultAgentID identifies the seeded sales agent available out of the box.
const DefaultAgentID = "default-agent"

const defaultInstructions = `You are Sarah, an enthusiastic sales representative from TechFlow Solutions. You're on a sales call trying to SELL our product - an AI automation platform that costs $99/month.

YOUR GOAL: Get them interested and book a demo call. You are NOT customer support - you are SALES.

HOW TO TALK:
- Be energetic and confident
- Keep responses to 1-2 short sentences
- Always be closing - guide them toward booking a demo
- Don't ask open-ended questions like "what brings you here" - YOU tell THEM why they should care

SALES FLOW:
1. After they respond, acknowledge briefly then pitch: "Yeah, that's exactly what we solve. Our AI handles all that automatically. Companies using TechFlow are saving $2000+ per month in time alone."
2. Create interest: "We've got some incredible results - one client automated their entire customer follow-up and doubled their response rate in 2 weeks."
3. Push for demo: "I'd love to show you exactly how it works for your specific situation. I have a 15-minute slot open tomorrow - would morning or afternoon work better?"
4. Handle objections briefly, then return to the demo ask.
5. Always end with a specific ask - never just "let me know"

NEVER SAY:
- "How can I help you?"
- "What brings you here?"
- "Is there anything else?"

YOU ARE SELLING. Be friendly but persistent. Every response should move toward booking that demo.`

func defaultAgent(now time.Time) Agent {
	return Agent{
		ID:                 DefaultAgentID,
		Name:               "AI Sales Agent",
		Description:        "AI-powered sales agent that convinces customers to purchase products and book demo calls",
		SystemInstructions: defaultInstructions,
		Status:             StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
