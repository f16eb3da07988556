package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// SendResult is the explicit success/error variant returned by every send.
type SendResult struct {
	Success bool   `json:"success"`
	EmailID string `json:"email_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MeetingConfirmation describes a booking confirmation email.
type MeetingConfirmation struct {
	ToEmail      string
	AttendeeName string
	MeetingTitle string
	MeetingTime  string
	MeetingLink  string
	Notes        string
}

// CampaignInvite describes an outbound campaign email with an AI call link.
type CampaignInvite struct {
	ToEmail      string
	ToName       string
	Subject      string
	CampaignName string
	CallLink     string
}

// MeetingCancellation describes a cancellation notice.
type MeetingCancellation struct {
	ToEmail      string
	AttendeeName string
	MeetingTitle string
	MeetingTime  string
	Reason       string
}

type Config struct {
	APIKey      string
	FromAddress string
	BaseURL     string
	HTTPTimeout time.Duration
}

// Client sends transactional email through the Resend HTTP API.
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

func (c *Client) SendMeetingConfirmation(ctx context.Context, msg MeetingConfirmation) SendResult {
	when := formatMeetingTime(msg.MeetingTime)

	var details strings.Builder
	fmt.Fprintf(&details, `<div class="detail-row"><span class="detail-label">Meeting:</span><br>%s</div>`, msg.MeetingTitle)
	fmt.Fprintf(&details, `<div class="detail-row"><span class="detail-label">When:</span><br>%s</div>`, when)
	if msg.Notes != "" {
		fmt.Fprintf(&details, `<div class="detail-row"><span class="detail-label">Notes:</span><br>%s</div>`, msg.Notes)
	}
	joinButton := ""
	if msg.MeetingLink != "" {
		joinButton = fmt.Sprintf(`<a href="%s" class="button">Join Meeting</a>`, msg.MeetingLink)
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #000; color: #fff; padding: 20px; text-align: center; }
.content { padding: 20px; background: #f9f9f9; }
.meeting-details { background: #fff; padding: 20px; border-radius: 8px; margin: 20px 0; }
.detail-row { padding: 10px 0; border-bottom: 1px solid #eee; }
.detail-label { font-weight: bold; color: #666; }
.button { display: inline-block; background: #000; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 5px 10px 0; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
</style></head>
<body><div class="container">
<div class="header"><h1>Meeting Confirmed! &#10003;</h1></div>
<div class="content">
<p>Hi %s,</p>
<p>Your meeting has been successfully scheduled. Here are the details:</p>
<div class="meeting-details">%s</div>
<div style="text-align: center;">%s</div>
<p>A calendar invite has also been sent to your email.</p>
<p>We look forward to speaking with you!</p>
</div>
<div class="footer"><p>This email was sent by Voice Agent AI</p></div>
</div></body></html>`, msg.AttendeeName, details.String(), joinButton)

	var text strings.Builder
	fmt.Fprintf(&text, "Meeting Confirmed!\n\nHi %s,\n\nYour meeting has been successfully scheduled.\n\nMeeting: %s\nWhen: %s\n", msg.AttendeeName, msg.MeetingTitle, when)
	if msg.Notes != "" {
		fmt.Fprintf(&text, "Notes: %s\n", msg.Notes)
	}
	if msg.MeetingLink != "" {
		fmt.Fprintf(&text, "\nJoin Meeting: %s\n", msg.MeetingLink)
	}
	text.WriteString("\nWe look forward to speaking with you!\n")

	return c.send(ctx, msg.ToEmail, "Meeting Confirmed: "+msg.MeetingTitle, html, text.String())
}

func (c *Client) SendCampaignInvite(ctx context.Context, msg CampaignInvite) SendResult {
	subject := msg.Subject
	if subject == "" {
		subject = "Exclusive Offer Just For You!"
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; }
.container { max-width: 600px; margin: 0 auto; }
.header { background: #000; color: #fff; padding: 40px 20px; text-align: center; }
.content { padding: 40px 20px; background: #fff; }
.cta-section { text-align: center; margin: 30px 0; }
.cta-button { display: inline-block; background: #000; color: #fff !important; padding: 16px 40px; text-decoration: none; border-radius: 8px; font-size: 18px; font-weight: bold; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; background: #f9f9f9; }
</style></head>
<body><div class="container">
<div class="header"><h1>Exclusive Opportunity</h1></div>
<div class="content">
<p>Hi %s,</p>
<p>Instead of reading through pages of information, <strong>speak directly with our AI assistant</strong> who can answer all your questions instantly and help you find the perfect solution.</p>
<div class="cta-section"><a href="%s" class="cta-button">Start AI Call Now</a></div>
<p style="text-align: center; color: #666; font-size: 14px;">Takes less than 5 minutes &bull; Available 24/7 &bull; No obligation</p>
</div>
<div class="footer">
<p>This email was sent as part of the %s campaign.</p>
<p>If you no longer wish to receive these emails, simply ignore this message.</p>
</div>
</div></body></html>`, msg.ToName, msg.CallLink, msg.CampaignName)

	text := fmt.Sprintf(`Hi %s,

Speak directly with our AI assistant who can answer all your questions instantly.

Start your AI call now: %s

Takes less than 5 minutes - Available 24/7 - No obligation

---
This email was sent as part of the %s campaign.
`, msg.ToName, msg.CallLink, msg.CampaignName)

	return c.send(ctx, msg.ToEmail, subject, html, text)
}

func (c *Client) SendMeetingCancellation(ctx context.Context, msg MeetingCancellation) SendResult {
	when := formatMeetingTime(msg.MeetingTime)
	reasonRow := ""
	if msg.Reason != "" {
		reasonRow = fmt.Sprintf("<p><strong>Reason:</strong> %s</p>", msg.Reason)
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #dc2626; color: #fff; padding: 20px; text-align: center; }
.content { padding: 20px; background: #f9f9f9; }
.meeting-details { background: #fff; padding: 20px; border-radius: 8px; margin: 20px 0; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
</style></head>
<body><div class="container">
<div class="header"><h1>Meeting Cancelled</h1></div>
<div class="content">
<p>Hi %s,</p>
<p>Your meeting has been cancelled.</p>
<div class="meeting-details">
<p><strong>Meeting:</strong> %s</p>
<p><strong>Originally scheduled for:</strong> %s</p>
%s
</div>
<p>If you'd like to reschedule, please contact us.</p>
</div>
<div class="footer"><p>This email was sent by Voice Agent AI</p></div>
</div></body></html>`, msg.AttendeeName, msg.MeetingTitle, when, reasonRow)

	return c.send(ctx, msg.ToEmail, "Meeting Cancelled: "+msg.MeetingTitle, html, "")
}

func (c *Client) send(ctx context.Context, to, subject, html, text string) SendResult {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return SendResult{Success: false, Error: "email not configured"}
	}

	payload := map[string]any{
		"from":    c.cfg.FromAddress,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	if text != "" {
		payload["text"] = text
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{Success: false, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/emails", bytes.NewReader(body))
	if err != nil {
		return SendResult{Success: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("email send failed: %v", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return SendResult{Success: false, Error: fmt.Sprintf("email send status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return SendResult{Success: false, Error: fmt.Sprintf("email response decode failed: %v", err)}
	}
	return SendResult{Success: true, EmailID: parsed.ID}
}

func formatMeetingTime(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if dt, err := time.Parse(layout, raw); err == nil {
			return dt.Format("Monday, January 2, 2006 at 3:04 PM")
		}
	}
	return raw
}
