package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/techflow-ai/voiceagent/internal/calendar"
	"github.com/techflow-ai/voiceagent/internal/email"
	"github.com/techflow-ai/voiceagent/internal/observability"
)

// Calendar is the booking collaborator consumed by the dispatcher.
type Calendar interface {
	GetAvailability(ctx context.Context, date string) calendar.Availability
	CreateBooking(ctx context.Context, req calendar.BookingRequest) calendar.BookingResult
}

// Emailer sends the booking confirmation after a successful booking.
type Emailer interface {
	SendMeetingConfirmation(ctx context.Context, msg email.MeetingConfirmation) email.SendResult
}

// Dispatcher executes named tool invocations requested by the model.
// Invoke is total: every input maps to a JSON result payload, and internal
// failures become an {"error": ...} result so the conversation continues.
type Dispatcher struct {
	calendar Calendar
	emailer  Emailer
	metrics  *observability.Metrics
}

func NewDispatcher(cal Calendar, emailer Emailer, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{calendar: cal, emailer: emailer, metrics: metrics}
}

// Invoke runs the named tool and returns its JSON-encoded result.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any) string {
	var out string
	switch name {
	case "check_availability":
		out = d.checkAvailability(ctx, args)
	case "book_meeting":
		out = d.bookMeeting(ctx, args)
	case "transfer_to_human":
		out = d.transferToHuman(args)
	case "end_call":
		out = d.endCall(args)
	default:
		out = errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	d.observe(name, out)
	return out
}

func (d *Dispatcher) checkAvailability(ctx context.Context, args map[string]any) string {
	date := stringArg(args, "date")
	if date == "" {
		return errorResult("check_availability requires a date")
	}
	availability := d.calendar.GetAvailability(ctx, date)
	if availability.Source == "fallback" {
		log.Printf("tools: check_availability served fallback slots for %s", date)
	}
	return mustJSON(availability)
}

func (d *Dispatcher) bookMeeting(ctx context.Context, args map[string]any) string {
	req := calendar.BookingRequest{
		StartTime:     stringArg(args, "start_time"),
		AttendeeName:  stringArg(args, "attendee_name"),
		AttendeeEmail: stringArg(args, "attendee_email"),
		Notes:         stringArg(args, "notes"),
	}
	if req.StartTime == "" || req.AttendeeName == "" || req.AttendeeEmail == "" {
		return errorResult("book_meeting requires start_time, attendee_name and attendee_email")
	}

	result := d.calendar.CreateBooking(ctx, req)
	if !result.Success {
		// Return the collaborator's failure payload unchanged; email is
		// never attempted for a failed booking.
		return mustJSON(result)
	}

	title := result.Title
	if title == "" {
		title = "Sales Demo Call"
	}
	sent := d.emailer.SendMeetingConfirmation(ctx, email.MeetingConfirmation{
		ToEmail:      req.AttendeeEmail,
		AttendeeName: req.AttendeeName,
		MeetingTitle: title,
		MeetingTime:  req.StartTime,
		MeetingLink:  result.MeetingURL,
		Notes:        req.Notes,
	})
	if !sent.Success {
		log.Printf("tools: booking %s confirmed but confirmation email failed: %s", result.BookingID, sent.Error)
	}

	return mustJSON(map[string]any{
		"success":     true,
		"message":     fmt.Sprintf("Meeting has been booked successfully! A confirmation email has been sent to %s.", req.AttendeeEmail),
		"meeting_url": result.MeetingURL,
		"booking_id":  result.BookingID,
	})
}

func (d *Dispatcher) transferToHuman(args map[string]any) string {
	reason := stringArg(args, "reason")
	return mustJSON(map[string]any{
		"success": true,
		"action":  "transfer",
		"message": fmt.Sprintf("Transferring to human sales representative. Reason: %s", reason),
	})
}

var callOutcomes = map[string]bool{
	"meeting_booked":   true,
	"interested":       true,
	"not_interested":   true,
	"follow_up_needed": true,
}

func (d *Dispatcher) endCall(args map[string]any) string {
	outcome := stringArg(args, "outcome")
	if !callOutcomes[outcome] {
		outcome = "follow_up_needed"
	}
	return mustJSON(map[string]any{
		"success": true,
		"action":  "end_call",
		"summary": stringArg(args, "summary"),
		"outcome": outcome,
	})
}

func (d *Dispatcher) observe(tool, result string) {
	if d.metrics == nil {
		return
	}
	outcome := "ok"
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(result), &probe); err == nil && probe.Error != "" {
		outcome = "error"
	}
	d.metrics.ToolInvocations.WithLabelValues(tool, outcome).Inc()
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func errorResult(msg string) string {
	return mustJSON(map[string]string{"error": msg})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}
