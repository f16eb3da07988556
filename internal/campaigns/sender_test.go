package campaigns

import (
	"context"
	"strings"
	"testing"

	"github.com/techflow-ai/voiceagent/internal/email"
)

type fakeEmailer struct {
	invites []email.CampaignInvite
	failFor map[string]string
}

func (f *fakeEmailer) SendCampaignInvite(_ context.Context, msg email.CampaignInvite) email.SendResult {
	f.invites = append(f.invites, msg)
	if reason, ok := f.failFor[msg.ToEmail]; ok {
		return email.SendResult{Success: false, Error: reason}
	}
	return email.SendResult{Success: true, EmailID: "em-1"}
}

func TestSendDeliversToAllPendingContacts(t *testing.T) {
	store := NewStore()
	c := store.Create("Q4", "", "agent-1", "Big Savings", "")
	added, _ := store.AddContacts(c.ID, []NewContact{
		{Name: "Ada", Email: "ada@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	})
	_ = store.UpdateContactStatus(c.ID, added[1].ID, ContactEmailSent)

	emailer := &fakeEmailer{}
	sender := NewSender(store, emailer, "https://app.example.com/", nil)

	report, err := sender.Send(context.Background(), c.ID, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if report.SentCount != 1 || report.TotalContacts != 1 {
		t.Fatalf("report = %+v; only the pending contact should be targeted", report)
	}

	invite := emailer.invites[0]
	if invite.ToEmail != "ada@example.com" || invite.Subject != "Big Savings" {
		t.Fatalf("invite = %+v", invite)
	}
	wantPrefix := "https://app.example.com/call/" + c.ID + "/"
	if !strings.HasPrefix(invite.CallLink, wantPrefix) {
		t.Fatalf("call link = %q, want prefix %q", invite.CallLink, wantPrefix)
	}
	if !strings.HasSuffix(invite.CallLink, added[0].CallToken) {
		t.Fatalf("call link %q missing the contact token", invite.CallLink)
	}

	got, _ := store.Get(c.ID)
	if got.Status != CampaignActive {
		t.Fatalf("campaign status = %q, want active", got.Status)
	}
	if got.Contacts[0].Status != ContactEmailSent {
		t.Fatalf("contact status = %q, want email_sent", got.Contacts[0].Status)
	}
}

func TestSendCollectsPerContactFailures(t *testing.T) {
	store := NewStore()
	c := store.Create("Q4", "", "a", "", "")
	added, _ := store.AddContacts(c.ID, []NewContact{
		{Name: "Ada", Email: "ada@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	})

	emailer := &fakeEmailer{failFor: map[string]string{"bob@example.com": "mailbox full"}}
	sender := NewSender(store, emailer, "https://app.example.com", nil)

	report, err := sender.Send(context.Background(), c.ID, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if report.SentCount != 1 || len(report.Errors) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Errors[0].ContactID != added[1].ID || report.Errors[0].Error != "mailbox full" {
		t.Fatalf("error entry = %+v", report.Errors[0])
	}

	got, _ := store.Get(c.ID)
	if got.Contacts[1].Status != ContactPending {
		t.Fatalf("failed contact status = %q, want still pending", got.Contacts[1].Status)
	}
}

func TestSendToExplicitContactSelection(t *testing.T) {
	store := NewStore()
	c := store.Create("Q4", "", "a", "", "")
	added, _ := store.AddContacts(c.ID, []NewContact{
		{Name: "Ada", Email: "ada@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	})

	emailer := &fakeEmailer{}
	sender := NewSender(store, emailer, "https://app.example.com", nil)

	report, err := sender.Send(context.Background(), c.ID, []string{added[1].ID})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if report.SentCount != 1 || emailer.invites[0].ToEmail != "bob@example.com" {
		t.Fatalf("selection ignored: %+v", report)
	}
}

func TestSendWithNoTargetsFails(t *testing.T) {
	store := NewStore()
	c := store.Create("Q4", "", "a", "", "")

	sender := NewSender(store, &fakeEmailer{}, "https://app.example.com", nil)
	if _, err := sender.Send(context.Background(), c.ID, nil); err == nil {
		t.Fatalf("Send() with no contacts should fail")
	}
}
