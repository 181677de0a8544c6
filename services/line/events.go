// Package line talks to the LINE Messaging API: webhook event parsing,
// outbound reply/push delivery, signature validation, and the message
// builders for the reservation dialogue.
package line

import "encoding/json"

// Webhook event types we handle. Everything else is acknowledged and
// dropped.
const (
	EventTypeMessage  = "message"
	EventTypeFollow   = "follow"
	EventTypePostback = "postback"
)

// WebhookRequest is the body LINE posts to the webhook endpoint.
type WebhookRequest struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single webhook event.
type Event struct {
	Type       string         `json:"type"`
	ReplyToken string         `json:"replyToken,omitempty"`
	Timestamp  int64          `json:"timestamp"`
	Source     EventSource    `json:"source"`
	Message    *EventMessage  `json:"message,omitempty"`
	Postback   *EventPostback `json:"postback,omitempty"`
}

type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type EventPostback struct {
	Data string `json:"data"`
}

// ParseWebhook decodes a webhook request body.
func ParseWebhook(body []byte) (*WebhookRequest, error) {
	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// IsTextMessage reports whether the event carries user-typed text.
func (e *Event) IsTextMessage() bool {
	return e.Type == EventTypeMessage && e.Message != nil && e.Message.Type == "text"
}
