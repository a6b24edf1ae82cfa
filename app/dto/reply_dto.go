package dto

// InboundReplyRequest represents an inbound reply delivered to a webhook
type InboundReplyRequest struct {
	RowUUID   string `json:"row_uuid" validate:"required,uuid4"`
	ReplyText string `json:"reply_text" validate:"required,min=1"`
}

// InboundReplyResponse represents the outcome of reconciling a reply
type InboundReplyResponse struct {
	RowUUID          string         `json:"row_uuid"`
	MessageStatus    string         `json:"message_status"`
	Intent           string         `json:"intent"`
	Confidence       float64        `json:"confidence"`
	NeedsReview      bool           `json:"needs_review"`
	AppliedUpdates   map[string]any `json:"applied_updates,omitempty"`
	SuggestedUpdates map[string]any `json:"suggested_updates,omitempty"`
}

// WhatsAppWebhookRequest represents an inbound WhatsApp message event
type WhatsAppWebhookRequest struct {
	Event   string `json:"event"`
	Session string `json:"session"`
	Payload struct {
		From string `json:"from"`
		Body string `json:"body"`
	} `json:"payload"`
}
