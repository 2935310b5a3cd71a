package models

import "time"

// PaymentEvent is the standardized event published after an order status
// transition so downstream consumers (dashboards, analytics) stay in sync.
type PaymentEvent struct {
	Type      string    `json:"type"` // payment_succeeded, payment_failed, order_fulfilled
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	PlanID    string    `json:"plan_id,omitempty"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}
