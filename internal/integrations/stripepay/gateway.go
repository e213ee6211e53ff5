// Package stripepay wraps the Stripe payment intent API and webhook signature checks.
package stripepay

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

const EventPaymentIntentSucceeded = "payment_intent.succeeded"

type PaymentIntentInput struct {
	AmountCents     int64
	Email           string
	FulfillmentType string
	ItemCount       int
	// checkout側で付与する追加メタデータ（discountCode, userIDなど）
	Metadata map[string]string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

type Gateway struct {
	sc *client.API
}

func NewGateway(secretKey string) *Gateway {
	return &Gateway{sc: client.New(secretKey, nil)}
}

// NewGatewayWithBackends is used to point the SDK at a fake API.
func NewGatewayWithBackends(secretKey string, backends *stripe.Backends) *Gateway {
	return &Gateway{sc: client.New(secretKey, backends)}
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if in.Email != "" {
		params.ReceiptEmail = stripe.String(in.Email)
	}
	params.AddMetadata("fulfillmentType", in.FulfillmentType)
	params.AddMetadata("itemCount", strconv.Itoa(in.ItemCount))
	params.AddMetadata("email", in.Email)
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return PaymentIntent{}, errors.Wrap(err, "stripe create payment intent")
	}
	return PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// SucceededPayment is the part of a payment_intent.succeeded event the order flow needs.
type SucceededPayment struct {
	PaymentIntentID string
	AmountCents     int64
	Status          string
	ReceiptEmail    string
	Metadata        map[string]string
}

type Event struct {
	ID      string
	Type    string
	Payment *SucceededPayment
}

type Verifier struct {
	secret string
}

func NewVerifier(webhookSecret string) *Verifier {
	return &Verifier{secret: webhookSecret}
}

// ParseEvent checks the Stripe-Signature header and decodes the event.
// Payment is set only for payment_intent.succeeded.
func (v *Verifier) ParseEvent(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, errors.Wrap(err, "verify stripe signature")
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type != EventPaymentIntentSucceeded || ev.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return Event{}, errors.Wrap(err, "decode payment intent")
	}
	out.Payment = &SucceededPayment{
		PaymentIntentID: pi.ID,
		AmountCents:     pi.Amount,
		Status:          string(pi.Status),
		ReceiptEmail:    pi.ReceiptEmail,
		Metadata:        pi.Metadata,
	}
	return out, nil
}
