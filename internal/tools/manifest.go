package tools

// Schema describes one tool in the upstream realtime format. The realtime
// API takes a flat schema, unlike the nested chat-completions format.
type Schema struct {
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

// Manifest returns the fixed tool set offered to the model on every call.
func Manifest() []Schema {
	return []Schema{
		{
			Type:        "function",
			Name:        "check_availability",
			Description: "Check available time slots for booking a meeting on a specific date. Use this when a customer wants to schedule a demo or meeting.",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"date": {Type: "string", Description: "The date to check availability for in YYYY-MM-DD format"},
				},
				Required: []string{"date"},
			},
		},
		{
			Type:        "function",
			Name:        "book_meeting",
			Description: "Book a meeting/demo with the customer. Use this after they've selected a time slot.",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"start_time":     {Type: "string", Description: "The start time for the meeting in ISO 8601 format (e.g., 2024-01-15T10:00:00)"},
					"attendee_name":  {Type: "string", Description: "The name of the person booking the meeting"},
					"attendee_email": {Type: "string", Description: "The email address of the person booking the meeting"},
					"notes":          {Type: "string", Description: "Optional notes or context for the meeting"},
				},
				Required: []string{"start_time", "attendee_name", "attendee_email"},
			},
		},
		{
			Type:        "function",
			Name:        "transfer_to_human",
			Description: "Transfer the call to a human sales representative when needed",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"reason": {Type: "string", Description: "The reason for transferring to a human"},
				},
				Required: []string{"reason"},
			},
		},
		{
			Type:        "function",
			Name:        "end_call",
			Description: "End the sales call with a summary",
			Parameters: Parameters{
				Type: "object",
				Properties: map[string]Property{
					"summary": {Type: "string", Description: "A brief summary of the call and any next steps"},
					"outcome": {Type: "string", Enum: []string{"meeting_booked", "interested", "not_interested", "follow_up_needed"}, Description: "The outcome of the call"},
				},
				Required: []string{"summary", "outcome"},
			},
		},
	}
}
