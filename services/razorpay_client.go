package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "tiffin-service/errors"
)

const razorpaySignatureHeader = "X-Razorpay-Signature"

type RazorpayClient struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

func NewRazorpayClient(keyID, keySecret, webhookSecret, baseURL string) *RazorpayClient {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayClient{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RazorpayClient) Name() string { return "razorpay" }

func (c *RazorpayClient) CheckoutKey() string { return c.keyID }

func (c *RazorpayClient) SignatureHeader() string { return razorpaySignatureHeader }

// CreateOrder registers the order with Razorpay and returns the gateway
// order id.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	payload := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperrors.Wrap(apperrors.ErrProviderUnavailable,
			fmt.Errorf("razorpay order creation returned %d: %s", resp.StatusCode, detail))
	}

	var orderData struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&orderData); err != nil {
		return "", apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
	}
	if orderData.ID == "" {
		return "", apperrors.Wrap(apperrors.ErrProviderUnavailable, fmt.Errorf("razorpay response missing order id"))
	}
	return orderData.ID, nil
}

// VerifyConfirmation recomputes the checkout signature over
// "orderRef|chargeRef" with the key secret and compares in constant time.
func (c *RazorpayClient) VerifyConfirmation(orderRef, chargeRef, signature string) error {
	expected := hmacSHA256Hex(c.keySecret, orderRef+"|"+chargeRef)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.ErrInvalidSignature
	}
	return nil
}

// razorpayWebhook mirrors the subset of the webhook envelope we act on.
type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
				Email   string `json:"email"`
				Contact string `json:"contact"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhook validates the webhook body against the webhook secret and
// maps the payment entity to a VerifiedEvent. With no secret configured the
// endpoint must stay a safe no-op, so every payload is rejected explicitly.
func (c *RazorpayClient) ParseWebhook(payload []byte, signature string) (*VerifiedEvent, error) {
	if c.webhookSecret == "" {
		return nil, apperrors.ErrWebhookNotConfigured
	}

	expected := hmacSHA256Hex(c.webhookSecret, string(payload))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, apperrors.ErrInvalidSignature
	}

	var hook razorpayWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBadRequest, err)
	}
	entity := hook.Payload.Payment.Entity
	if entity.OrderID == "" {
		return nil, apperrors.Wrap(apperrors.ErrBadRequest, fmt.Errorf("webhook payload missing order id"))
	}

	outcome := entity.Status
	switch hook.Event {
	case "payment.captured":
		outcome = OutcomeSucceeded
	case "payment.failed":
		outcome = OutcomeFailed
	}

	return &VerifiedEvent{
		ProviderOrderRef:  entity.OrderID,
		ProviderChargeRef: entity.ID,
		Signature:         signature,
		Outcome:           outcome,
		Customer: CustomerInfo{
			Email: entity.Email,
			Phone: entity.Contact,
		},
	}, nil
}

func hmacSHA256Hex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
