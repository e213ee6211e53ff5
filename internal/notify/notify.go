// Package notify sends customer notifications (SMS, email) on a best-effort,
// at-most-once basis. Dispatch never reports delivery failures to the caller:
// a Receipt only says whether the message was accepted for delivery.
package notify

import (
	"context"
	"time"

	"storefront/internal/broker/messages"
)

type Channel string

const (
	ChannelSMS   Channel = messages.ChannelSMS
	ChannelEmail Channel = messages.ChannelEmail
)

type Message struct {
	Channel Channel
	To      string
	Subject string
	Body    string
	HTML    string
	ReplyTo string
	Ref     string
}

// Receipt means "accepted, outcome unknown". Accepted=false means the
// message was dropped before any delivery attempt (queue full, broker down).
type Receipt struct {
	ID       string
	Accepted bool
}

type Dispatcher interface {
	Dispatch(ctx context.Context, m Message) Receipt
}

// Deliverer performs the actual outbound call.
type Deliverer interface {
	Deliver(ctx context.Context, m Message) error
}

func (m Message) toNotification(id string, now time.Time) messages.Notification {
	return messages.Notification{
		ID:        id,
		Channel:   string(m.Channel),
		To:        m.To,
		Subject:   m.Subject,
		Body:      m.Body,
		HTML:      m.HTML,
		ReplyTo:   m.ReplyTo,
		Ref:       m.Ref,
		CreatedAt: now,
	}
}

func fromNotification(n messages.Notification) Message {
	return Message{
		Channel: Channel(n.Channel),
		To:      n.To,
		Subject: n.Subject,
		Body:    n.Body,
		HTML:    n.HTML,
		ReplyTo: n.ReplyTo,
		Ref:     n.Ref,
	}
}
