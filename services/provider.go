package services

import "context"

// Payment event outcomes as seen by the reconciler. Anything else carried in
// VerifiedEvent.Outcome is a literal provider status (e.g. "processing").
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// VerifiedEvent is a payment notification whose authenticity has already
// passed signature validation. Only verified events may reach the reconciler.
type VerifiedEvent struct {
	ProviderOrderRef  string
	ProviderChargeRef string
	Signature         string
	Outcome           string
	PlanID            string
	Customer          CustomerInfo
}

// PaymentProvider abstracts the gateway integration. The service ships two
// implementations, Razorpay and Stripe, selected by configuration.
type PaymentProvider interface {
	Name() string
	// CheckoutKey is the public key the checkout frontend needs.
	CheckoutKey() string
	// CreateOrder registers the payment with the gateway and returns the
	// provider-assigned order reference.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
	// VerifyConfirmation validates a client-reported payment confirmation.
	// Returns ErrInvalidSignature on mismatch.
	VerifyConfirmation(orderRef, chargeRef, signature string) error
	// SignatureHeader names the HTTP header carrying the webhook signature.
	SignatureHeader() string
	// ParseWebhook validates a raw webhook payload against the webhook
	// secret and maps it to a VerifiedEvent. A missing configured secret
	// rejects everything with ErrWebhookNotConfigured.
	ParseWebhook(payload []byte, signature string) (*VerifiedEvent, error)
}
