package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techflow-ai/voiceagent/internal/observability"
)

const (
	defaultBaseURL  = "https://api.cal.com/v1"
	slotDuration    = 30 * time.Minute
	defaultTimezone = "America/Los_Angeles"
)

// Slot is one bookable window.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability is the total result of an availability check. Source is
// "calcom" for a real API response and "fallback" for generated slots, so
// degraded mode is always distinguishable downstream.
type Availability struct {
	Date     string `json:"date"`
	Slots    []Slot `json:"available_slots"`
	Timezone string `json:"timezone"`
	Source   string `json:"source"`
	Error    string `json:"error,omitempty"`
}

// BookingRequest describes one meeting to create.
type BookingRequest struct {
	StartTime     string
	AttendeeName  string
	AttendeeEmail string
	Notes         string
}

// BookingResult is the explicit success/error variant returned by
// CreateBooking. Callers branch on Success; there is no panic path.
type BookingResult struct {
	Success       bool   `json:"success"`
	BookingID     string `json:"booking_id,omitempty"`
	UID           string `json:"uid,omitempty"`
	Title         string `json:"title,omitempty"`
	StartTime     string `json:"start_time,omitempty"`
	EndTime       string `json:"end_time,omitempty"`
	MeetingURL    string `json:"meeting_url,omitempty"`
	AttendeeName  string `json:"attendee_name,omitempty"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	Error         string `json:"error,omitempty"`
}

type Config struct {
	APIKey      string
	EventTypeID string
	BaseURL     string
	HTTPTimeout time.Duration
	Metrics     *observability.Metrics
}

// Client talks to the Cal.com v1 API. An unconfigured client (no API key)
// serves generated availability and refuses bookings.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (c *Client) observe(op, source string) {
	if c.cfg.Metrics == nil {
		return
	}
	c.cfg.Metrics.CalendarCalls.WithLabelValues(op, source).Inc()
}

func (c *Client) configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// GetAvailability returns bookable slots for a date (YYYY-MM-DD). When the
// API is unreachable or unconfigured it degrades to generated business-hours
// slots rather than failing the conversation.
func (c *Client) GetAvailability(ctx context.Context, date string) Availability {
	a := c.fetchAvailability(ctx, date)
	c.observe("availability", a.Source)
	return a
}

func (c *Client) fetchAvailability(ctx context.Context, date string) Availability {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return Availability{Date: date, Timezone: defaultTimezone, Source: "fallback", Error: fmt.Sprintf("invalid date %q", date)}
	}

	if !c.configured() {
		log.Printf("calendar: unconfigured, serving fallback availability for %s", date)
		return FallbackAvailability(date)
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/availability")
	if err != nil {
		return FallbackAvailability(date)
	}
	q := u.Query()
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("eventTypeId", c.cfg.EventTypeID)
	q.Set("dateFrom", date)
	q.Set("dateTo", date)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return FallbackAvailability(date)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		log.Printf("calendar: availability request failed, serving fallback: %v", err)
		return FallbackAvailability(date)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Printf("calendar: availability status %d, serving fallback", res.StatusCode)
		return FallbackAvailability(date)
	}

	var payload struct {
		Slots map[string][]struct {
			Time string `json:"time"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		log.Printf("calendar: availability decode failed, serving fallback: %v", err)
		return FallbackAvailability(date)
	}

	var slots []Slot
	for _, times := range payload.Slots {
		for _, ts := range times {
			start, err := time.Parse(time.RFC3339, ts.Time)
			if err != nil {
				continue
			}
			slots = append(slots, Slot{
				Start: start.Format("2006-01-02T15:04:05"),
				End:   start.Add(slotDuration).Format("2006-01-02T15:04:05"),
			})
		}
	}

	return Availability{Date: date, Slots: slots, Timezone: defaultTimezone, Source: "calcom"}
}

// FallbackAvailability generates 30-minute slots between 09:00 and 17:00,
// skipping the 12:00 and 14:00 hours.
func FallbackAvailability(date string) Availability {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Availability{Date: date, Timezone: defaultTimezone, Source: "fallback", Error: fmt.Sprintf("invalid date %q", date)}
	}

	var slots []Slot
	cursor := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, time.UTC)
	for cursor.Before(end) {
		if cursor.Hour() != 12 && cursor.Hour() != 14 {
			slots = append(slots, Slot{
				Start: cursor.Format("2006-01-02T15:04:05"),
				End:   cursor.Add(slotDuration).Format("2006-01-02T15:04:05"),
			})
		}
		cursor = cursor.Add(slotDuration)
	}

	return Availability{Date: date, Slots: slots, Timezone: defaultTimezone, Source: "fallback"}
}

// CreateBooking books a meeting via Cal.com. API failures become an error
// variant; an unconfigured client returns a generated demo booking, marked
// in logs so it is never mistaken for a real one.
func (c *Client) CreateBooking(ctx context.Context, breq BookingRequest) BookingResult {
	result := c.createBooking(ctx, breq)
	switch {
	case result.Success && !c.configured():
		c.observe("booking", "fallback")
	case result.Success:
		c.observe("booking", "calcom")
	default:
		c.observe("booking", "error")
	}
	return result
}

func (c *Client) createBooking(ctx context.Context, breq BookingRequest) BookingResult {
	start, err := time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(breq.StartTime, "Z"))
	if err != nil {
		return BookingResult{Success: false, Error: fmt.Sprintf("invalid start_time %q", breq.StartTime)}
	}
	end := start.Add(slotDuration)

	if !c.configured() {
		log.Printf("calendar: unconfigured, issuing demo booking for %s", breq.AttendeeEmail)
		return demoBooking(breq, end)
	}

	eventTypeID, _ := strconv.Atoi(c.cfg.EventTypeID)
	if eventTypeID == 0 {
		eventTypeID = 1
	}
	body, err := json.Marshal(map[string]any{
		"eventTypeId": eventTypeID,
		"start":       breq.StartTime,
		"end":         end.Format("2006-01-02T15:04:05"),
		"responses": map[string]string{
			"name":  breq.AttendeeName,
			"email": breq.AttendeeEmail,
			"notes": breq.Notes,
		},
		"timeZone": defaultTimezone,
		"language": "en",
		"metadata": map[string]any{},
	})
	if err != nil {
		return BookingResult{Success: false, Error: err.Error()}
	}

	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/bookings?apiKey=" + url.QueryEscape(c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return BookingResult{Success: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return BookingResult{Success: false, Error: fmt.Sprintf("booking request failed: %v", err)}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return BookingResult{Success: false, Error: fmt.Sprintf("booking failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))}
	}

	var payload struct {
		ID       json.Number `json:"id"`
		UID      string      `json:"uid"`
		Title    string      `json:"title"`
		Metadata struct {
			VideoCallURL string `json:"videoCallUrl"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return BookingResult{Success: false, Error: fmt.Sprintf("booking response decode failed: %v", err)}
	}

	title := payload.Title
	if title == "" {
		title = "Sales Demo Call"
	}
	return BookingResult{
		Success:       true,
		BookingID:     payload.ID.String(),
		UID:           payload.UID,
		Title:         title,
		StartTime:     breq.StartTime,
		EndTime:       end.Format("2006-01-02T15:04:05"),
		MeetingURL:    payload.Metadata.VideoCallURL,
		AttendeeName:  breq.AttendeeName,
		AttendeeEmail: breq.AttendeeEmail,
	}
}

// CancelBooking cancels an existing booking.
func (c *Client) CancelBooking(ctx context.Context, bookingID, reason string) BookingResult {
	if !c.configured() {
		return BookingResult{Success: false, BookingID: bookingID, Error: "calendar not configured"}
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/bookings/" + url.PathEscape(bookingID))
	if err != nil {
		return BookingResult{Success: false, BookingID: bookingID, Error: err.Error()}
	}
	q := u.Query()
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("cancellationReason", reason)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return BookingResult{Success: false, BookingID: bookingID, Error: err.Error()}
	}

	res, err := c.client.Do(req)
	if err != nil {
		return BookingResult{Success: false, BookingID: bookingID, Error: err.Error()}
	}
	defer res.Body.Close()

	ok := res.StatusCode == http.StatusOK || res.StatusCode == http.StatusNoContent
	result := BookingResult{Success: ok, BookingID: bookingID}
	if !ok {
		result.Error = fmt.Sprintf("cancel failed with status %d", res.StatusCode)
		c.observe("cancel", "error")
	} else {
		c.observe("cancel", "calcom")
	}
	return result
}

func demoBooking(breq BookingRequest, end time.Time) BookingResult {
	return BookingResult{
		Success:       true,
		BookingID:     uuid.NewString()[:8],
		UID:           uuid.NewString(),
		Title:         "Sales Demo Call",
		StartTime:     breq.StartTime,
		EndTime:       end.Format("2006-01-02T15:04:05"),
		MeetingURL:    "https://cal.com/video/" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		AttendeeName:  breq.AttendeeName,
		AttendeeEmail: breq.AttendeeEmail,
	}
}
