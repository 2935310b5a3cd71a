package services

import (
	"context"
	"crypto/hmac"
	"strings"

	apperrors "tiffin-service/errors"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

type StripeClient struct {
	apiKey        string
	webhookSecret string
}

func NewStripeClient(apiKey, webhookSecret string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{apiKey: apiKey, webhookSecret: webhookSecret}
}

func (c *StripeClient) Name() string { return "stripe" }

// CheckoutKey is empty for Stripe; checkout is driven by the client secret
// returned from PaymentIntent creation, not a shared key.
func (c *StripeClient) CheckoutKey() string { return "" }

func (c *StripeClient) SignatureHeader() string { return "Stripe-Signature" }

// CreateOrder creates a PaymentIntent and returns its id, which serves as
// the provider order reference for the whole lifecycle.
func (c *StripeClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	if receipt != "" {
		params.AddMetadata("receipt", receipt)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
	}
	return pi.ID, nil
}

// VerifyConfirmation applies the same shared-secret HMAC contract as the
// Razorpay checkout: signature over "orderRef|chargeRef" with the API key
// secret, constant-time compare.
func (c *StripeClient) VerifyConfirmation(orderRef, chargeRef, signature string) error {
	expected := hmacSHA256Hex(c.apiKey, orderRef+"|"+chargeRef)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.ErrInvalidSignature
	}
	return nil
}

// ParseWebhook verifies the event with Stripe's signature scheme and maps
// PaymentIntent lifecycle events onto the reconciler's outcomes.
func (c *StripeClient) ParseWebhook(payload []byte, signature string) (*VerifiedEvent, error) {
	if c.webhookSecret == "" {
		return nil, apperrors.ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidSignature, err)
	}

	var pi stripe.PaymentIntent
	if err := pi.UnmarshalJSON(event.Data.Raw); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBadRequest, err)
	}

	outcome := string(pi.Status)
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = OutcomeSucceeded
	case "payment_intent.payment_failed":
		outcome = OutcomeFailed
	}

	chargeRef := ""
	if pi.LatestCharge != nil {
		chargeRef = pi.LatestCharge.ID
	}

	ev := &VerifiedEvent{
		ProviderOrderRef:  pi.ID,
		ProviderChargeRef: chargeRef,
		Signature:         signature,
		Outcome:           outcome,
	}
	if pi.ReceiptEmail != "" {
		ev.Customer.Email = pi.ReceiptEmail
	}
	return ev, nil
}
