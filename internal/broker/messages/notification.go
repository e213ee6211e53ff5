package messages

import "time"

const (
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// Notification is the payload published to the notifications topic.
type Notification struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	To      string `json:"to"`

	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
	HTML    string `json:"html,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`

	// Ref points back at the record that caused the notification (order id, ticket id).
	Ref       string    `json:"ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
