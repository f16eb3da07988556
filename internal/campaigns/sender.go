package campaigns

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/techflow-ai/voiceagent/internal/email"
	"github.com/techflow-ai/voiceagent/internal/observability"
)

// Emailer sends one campaign invite.
type Emailer interface {
	SendCampaignInvite(ctx context.Context, msg email.CampaignInvite) email.SendResult
}

// SendError reports one contact whose invite could not be delivered.
type SendError struct {
	ContactID string `json:"contact_id"`
	Email     string `json:"email"`
	Error     string `json:"error"`
}

// SendReport summarizes one campaign send run.
type SendReport struct {
	Success       bool        `json:"success"`
	SentCount     int         `json:"sent_count"`
	TotalContacts int         `json:"total_contacts"`
	Errors        []SendError `json:"errors,omitempty"`
}

// Sender delivers campaign invites with per-contact call links.
type Sender struct {
	store       *Store
	emailer     Emailer
	frontendURL string
	metrics     *observability.Metrics
}

func NewSender(store *Store, emailer Emailer, frontendURL string, metrics *observability.Metrics) *Sender {
	return &Sender{
		store:       store,
		emailer:     emailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		metrics:     metrics,
	}
}

// Send emails invites to the selected contacts, or to every pending contact
// when contactIDs is empty. Per-contact failures are collected, not fatal;
// any run with at least one target marks the campaign active.
func (s *Sender) Send(ctx context.Context, campaignID string, contactIDs []string) (SendReport, error) {
	campaign, err := s.store.Get(campaignID)
	if err != nil {
		return SendReport{}, err
	}

	targets := selectTargets(campaign.Contacts, contactIDs)
	if len(targets) == 0 {
		return SendReport{}, fmt.Errorf("no contacts to send emails to")
	}

	report := SendReport{Success: true, TotalContacts: len(targets)}
	for _, contact := range targets {
		callLink := fmt.Sprintf("%s/call/%s/%s", s.frontendURL, campaignID, contact.CallToken)
		result := s.emailer.SendCampaignInvite(ctx, email.CampaignInvite{
			ToEmail:      contact.Email,
			ToName:       contact.Name,
			Subject:      campaign.EmailSubject,
			CampaignName: campaign.Name,
			CallLink:     callLink,
		})
		if result.Success {
			s.store.markEmailSent(campaignID, contact.ID)
			report.SentCount++
			s.observe("sent")
		} else {
			log.Printf("campaign %s: invite to %s failed: %s", campaignID, contact.Email, result.Error)
			report.Errors = append(report.Errors, SendError{
				ContactID: contact.ID,
				Email:     contact.Email,
				Error:     result.Error,
			})
			s.observe("failed")
		}
	}

	s.store.markActive(campaignID)
	return report, nil
}

func selectTargets(contacts []Contact, contactIDs []string) []Contact {
	if len(contactIDs) > 0 {
		wanted := make(map[string]bool, len(contactIDs))
		for _, id := range contactIDs {
			wanted[id] = true
		}
		out := make([]Contact, 0, len(contactIDs))
		for _, c := range contacts {
			if wanted[c.ID] {
				out = append(out, c)
			}
		}
		return out
	}
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Status == ContactPending {
			out = append(out, c)
		}
	}
	return out
}

func (s *Sender) observe(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.EmailsSent.WithLabelValues("campaign_invite", outcome).Inc()
}
