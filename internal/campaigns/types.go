package campaigns

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
)

type ContactStatus string

const (
	ContactPending       ContactStatus = "pending"
	ContactEmailSent     ContactStatus = "email_sent"
	ContactCallStarted   ContactStatus = "call_started"
	ContactCallCompleted ContactStatus = "call_completed"
	ContactMeetingBooked ContactStatus = "meeting_booked"
	ContactNotInterested ContactStatus = "not_interested"
)

// Contact is one outreach target within a campaign. CallToken is the
// unguessable secret embedded in the contact's personal call link.
type Contact struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Company      string        `json:"company"`
	Status       ContactStatus `json:"status"`
	CallToken    string        `json:"call_token"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity *time.Time    `json:"last_activity"`
}

type Stats struct {
	TotalContacts  int `json:"total_contacts"`
	EmailsSent     int `json:"emails_sent"`
	CallsStarted   int `json:"calls_started"`
	MeetingsBooked int `json:"meetings_booked"`
	NotInterested  int `json:"not_interested"`
}

type Campaign struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	AgentID       string         `json:"agent_id"`
	Contacts      []Contact      `json:"contacts"`
	EmailSubject  string         `json:"email_subject"`
	EmailTemplate string         `json:"email_template"`
	Status        CampaignStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Stats         Stats          `json:"stats"`
}

// Update carries partial campaign changes; nil fields are left untouched.
type Update struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	EmailSubject  *string         `json:"email_subject"`
	EmailTemplate *string         `json:"email_template"`
	Status        *CampaignStatus `json:"status"`
}

// NewContact is the input shape for adding a contact to a campaign.
type NewContact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// TokenInfo is the public call-page view of a validated call token.
type TokenInfo struct {
	Valid        bool   `json:"valid"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	AgentID      string `json:"agent_id"`
	CampaignName string `json:"campaign_name"`
}
