package notify

import (
	"context"
	"fmt"

	"storefront/internal/integrations/resend"

	"github.com/pkg/errors"
)

// twilio.Clientが満たす
type SMSSender interface {
	Configured() bool
	SendSMS(ctx context.Context, to, body string) error
}

// resend.Clientが満たす
type EmailSender interface {
	Configured() bool
	SendEmail(ctx context.Context, e resend.Email) (string, error)
}

// Router delivers a message through the provider for its channel.
type Router struct {
	sms   SMSSender
	email EmailSender
}

func NewRouter(sms SMSSender, email EmailSender) *Router {
	return &Router{sms: sms, email: email}
}

func (r *Router) Deliver(ctx context.Context, m Message) error {
	if m.To == "" {
		return errors.New("notify: empty recipient")
	}
	switch m.Channel {
	case ChannelSMS:
		if !r.sms.Configured() {
			return errors.New("notify: sms sender not configured")
		}
		return errors.Wrap(r.sms.SendSMS(ctx, m.To, m.Body), "send sms")
	case ChannelEmail:
		if !r.email.Configured() {
			return errors.New("notify: email sender not configured")
		}
		_, err := r.email.SendEmail(ctx, resend.Email{
			To:      m.To,
			Subject: m.Subject,
			HTML:    m.HTML,
			Text:    m.Body,
			ReplyTo: m.ReplyTo,
		})
		return errors.Wrap(err, "send email")
	default:
		return fmt.Errorf("notify: unknown channel %q", m.Channel)
	}
}
