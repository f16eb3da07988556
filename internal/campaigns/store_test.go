package campaigns

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCreateDefaultsSubjectAndStatus(t *testing.T) {
	s := NewStore()
	c := s.Create("Q4 Outreach", "", "default-agent", "", "")
	if c.Status != CampaignDraft {
		t.Fatalf("status = %q, want draft", c.Status)
	}
	if c.EmailSubject != "Exclusive Offer Just For You!" {
		t.Fatalf("subject = %q", c.EmailSubject)
	}
	if c.Contacts == nil || len(c.Contacts) != 0 {
		t.Fatalf("contacts = %v", c.Contacts)
	}
}

func TestFreshCampaignSerializesEmptyContactList(t *testing.T) {
	s := NewStore()
	c := s.Create("Q4", "", "a", "", "")

	got, err := s.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Contacts == nil {
		t.Fatalf("Get() returned nil contacts for a fresh campaign")
	}

	payload, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal campaign: %v", err)
	}
	if !strings.Contains(string(payload), `"contacts":[]`) {
		t.Fatalf("campaign JSON = %s, want contacts as []", payload)
	}
}

func TestAddContactsGeneratesUniqueTokens(t *testing.T) {
	s := NewStore()
	c := s.Create("Q4", "", "a", "", "")

	added, err := s.AddContacts(c.ID, []NewContact{
		{Name: "Ada", Email: "ada@example.com", Company: "Acme"},
		{Name: "Bob", Email: "bob@example.com"},
	})
	if err != nil {
		t.Fatalf("AddContacts() error = %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("len(added) = %d", len(added))
	}
	if added[0].CallToken == "" || added[0].CallToken == added[1].CallToken {
		t.Fatalf("call tokens not unique: %q vs %q", added[0].CallToken, added[1].CallToken)
	}
	if added[0].Status != ContactPending {
		t.Fatalf("new contact status = %q", added[0].Status)
	}

	got, _ := s.Get(c.ID)
	if got.Stats.TotalContacts != 2 {
		t.Fatalf("TotalContacts = %d", got.Stats.TotalContacts)
	}
}

func TestValidateTokenStartsCall(t *testing.T) {
	s := NewStore()
	c := s.Create("Q4", "", "agent-1", "", "")
	added, _ := s.AddContacts(c.ID, []NewContact{{Name: "Ada", Email: "ada@example.com"}})

	info, err := s.ValidateToken(c.ID, added[0].CallToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if !info.Valid || info.ContactName != "Ada" || info.AgentID != "agent-1" {
		t.Fatalf("token info = %+v", info)
	}

	got, _ := s.Get(c.ID)
	if got.Contacts[0].Status != ContactCallStarted {
		t.Fatalf("contact status = %q, want call_started", got.Contacts[0].Status)
	}
	if got.Contacts[0].LastActivity == nil {
		t.Fatalf("LastActivity not recorded")
	}

	if _, err := s.ValidateToken(c.ID, "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bogus token error = %v", err)
	}
	if _, err := s.ValidateToken("missing", added[0].CallToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing campaign error = %v, want ErrInvalidToken", err)
	}
}

func TestStatsDerivedFromContactStatuses(t *testing.T) {
	s := NewStore()
	c := s.Create("Q4", "", "a", "", "")
	added, _ := s.AddContacts(c.ID, []NewContact{
		{Name: "A", Email: "a@example.com"},
		{Name: "B", Email: "b@example.com"},
		{Name: "C", Email: "c@example.com"},
		{Name: "D", Email: "d@example.com"},
	})

	_ = s.UpdateContactStatus(c.ID, added[0].ID, ContactMeetingBooked)
	_ = s.UpdateContactStatus(c.ID, added[1].ID, ContactNotInterested)
	_ = s.UpdateContactStatus(c.ID, added[2].ID, ContactEmailSent)

	st, err := s.CampaignStats(c.ID)
	if err != nil {
		t.Fatalf("CampaignStats() error = %v", err)
	}
	want := Stats{
		TotalContacts:  4,
		EmailsSent:     3,
		CallsStarted:   2,
		MeetingsBooked: 1,
		NotInterested:  1,
	}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
}

func TestUpdateTouchesOnlyProvidedFields(t *testing.T) {
	s := NewStore()
	c := s.Create("Old Name", "desc", "a", "Subject", "")

	name := "New Name"
	status := CampaignCompleted
	updated, err := s.Update(c.ID, Update{Name: &name, Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "New Name" || updated.Status != CampaignCompleted {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Description != "desc" || updated.EmailSubject != "Subject" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestRemoveContactAndDelete(t *testing.T) {
	s := NewStore()
	c := s.Create("Q4", "", "a", "", "")
	added, _ := s.AddContacts(c.ID, []NewContact{
		{Name: "A", Email: "a@example.com"},
		{Name: "B", Email: "b@example.com"},
	})

	if err := s.RemoveContact(c.ID, added[0].ID); err != nil {
		t.Fatalf("RemoveContact() error = %v", err)
	}
	got, _ := s.Get(c.ID)
	if len(got.Contacts) != 1 || got.Contacts[0].ID != added[1].ID {
		t.Fatalf("contacts after removal = %+v", got.Contacts)
	}

	if err := s.Delete(c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
}
