package campaigns

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("campaign not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrInvalidToken    = errors.New("invalid call token")
)

const defaultEmailSubject = "Exclusive Offer Just For You!"

// Store is the in-memory campaign registry. Campaigns do not survive a
// restart.
type Store struct {
	mu        sync.Mutex
	campaigns map[string]*Campaign
}

func NewStore() *Store {
	return &Store{campaigns: make(map[string]*Campaign)}
}

func (s *Store) List() []Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, cloneCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Create(name, description, agentID, emailSubject, emailTemplate string) Campaign {
	if emailSubject == "" {
		emailSubject = defaultEmailSubject
	}
	now := time.Now().UTC()
	c := &Campaign{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   description,
		AgentID:       agentID,
		Contacts:      []Contact{},
		EmailSubject:  emailSubject,
		EmailTemplate: emailTemplate,
		Status:        CampaignDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.mu.Lock()
	s.campaigns[c.ID] = c
	s.mu.Unlock()
	return cloneCampaign(c)
}

func (s *Store) Get(id string) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (s *Store) Update(id string, u Update) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.EmailSubject != nil {
		c.EmailSubject = *u.EmailSubject
	}
	if u.EmailTemplate != nil {
		c.EmailTemplate = *u.EmailTemplate
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	c.UpdatedAt = time.Now().UTC()
	return cloneCampaign(c), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return ErrNotFound
	}
	delete(s.campaigns, id)
	return nil
}

// AddContacts appends contacts with fresh ids and call tokens and returns
// the created records.
func (s *Store) AddContacts(id string, in []NewContact) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}

	added := make([]Contact, 0, len(in))
	now := time.Now().UTC()
	for _, nc := range in {
		token, err := newCallToken()
		if err != nil {
			return nil, fmt.Errorf("generate call token: %w", err)
		}
		contact := Contact{
			ID:        uuid.NewString(),
			Name:      nc.Name,
			Email:     nc.Email,
			Company:   nc.Company,
			Status:    ContactPending,
			CallToken: token,
			CreatedAt: now,
		}
		c.Contacts = append(c.Contacts, contact)
		added = append(added, contact)
	}
	c.Stats.TotalContacts = len(c.Contacts)
	c.UpdatedAt = now
	return added, nil
}

func (s *Store) RemoveContact(id, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	kept := c.Contacts[:0]
	for _, contact := range c.Contacts {
		if contact.ID != contactID {
			kept = append(kept, contact)
		}
	}
	c.Contacts = kept
	c.Stats.TotalContacts = len(c.Contacts)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateContactStatus records a call outcome for one contact.
func (s *Store) UpdateContactStatus(id, contactID string, status ContactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return ErrNotFound
	}
	for i := range c.Contacts {
		if c.Contacts[i].ID == contactID {
			now := time.Now().UTC()
			c.Contacts[i].Status = status
			c.Contacts[i].LastActivity = &now
			c.Stats = deriveStats(c.Contacts)
			return nil
		}
	}
	return ErrContactNotFound
}

// ValidateToken resolves a call token to its contact, marks the call as
// started, and returns the public call-page info. An unknown campaign and
// an unknown token are indistinguishable to the caller.
func (s *Store) ValidateToken(id, token string) (TokenInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return TokenInfo{}, ErrInvalidToken
	}
	for i := range c.Contacts {
		if c.Contacts[i].CallToken == token {
			now := time.Now().UTC()
			c.Contacts[i].Status = ContactCallStarted
			c.Contacts[i].LastActivity = &now
			c.Stats = deriveStats(c.Contacts)
			return TokenInfo{
				Valid:        true,
				ContactName:  c.Contacts[i].Name,
				ContactEmail: c.Contacts[i].Email,
				AgentID:      c.AgentID,
				CampaignName: c.Name,
			}, nil
		}
	}
	return TokenInfo{}, ErrInvalidToken
}

// Stats derives campaign statistics from the current contact statuses
// rather than trusting the running counters.
func (s *Store) CampaignStats(id string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return Stats{}, ErrNotFound
	}
	return deriveStats(c.Contacts), nil
}

// markEmailSent flips one contact to email_sent and bumps the campaign's
// running counters; used by the sender after a successful send.
func (s *Store) markEmailSent(id, contactID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return
	}
	for i := range c.Contacts {
		if c.Contacts[i].ID == contactID {
			now := time.Now().UTC()
			c.Contacts[i].Status = ContactEmailSent
			c.Contacts[i].LastActivity = &now
			c.Stats.EmailsSent++
			break
		}
	}
}

func (s *Store) markActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[id]; ok {
		c.Status = CampaignActive
		c.UpdatedAt = time.Now().UTC()
	}
}

func deriveStats(contacts []Contact) Stats {
	st := Stats{TotalContacts: len(contacts)}
	for _, c := range contacts {
		if c.Status != ContactPending {
			st.EmailsSent++
		}
		switch c.Status {
		case ContactCallStarted, ContactCallCompleted, ContactMeetingBooked, ContactNotInterested:
			st.CallsStarted++
		}
		if c.Status == ContactMeetingBooked {
			st.MeetingsBooked++
		}
		if c.Status == ContactNotInterested {
			st.NotInterested++
		}
	}
	return st
}

func newCallToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func cloneCampaign(c *Campaign) Campaign {
	out := *c
	// Keep the empty slice non-nil so a fresh campaign serializes its
	// contacts as [] rather than null.
	out.Contacts = make([]Contact, len(c.Contacts))
	copy(out.Contacts, c.Contacts)
	return out
}
