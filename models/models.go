package models

import (
	"time"

	"github.com/google/uuid"
)

// Canonical order lifecycle statuses. Provider-reported interim statuses
// (e.g. "processing") are stored literally and are not part of this set.
const (
	OrderStatusCreated   = "created"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusFulfilled = "fulfilled"
)

// IsFinalPaymentStatus reports whether a status means the payment outcome
// has already been settled and amount/currency must no longer change.
func IsFinalPaymentStatus(status string) bool {
	return status == OrderStatusPaid || status == OrderStatusFailed || status == OrderStatusFulfilled
}

type Order struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PlanID            string    `gorm:"type:varchar(80);not null" json:"plan_id"`
	Description       string    `gorm:"type:varchar(255)" json:"description"`
	Amount            int64     `gorm:"not null" json:"amount"` // minor units (paise)
	Currency          string    `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
	ProviderOrderRef  *string   `gorm:"type:varchar(120);uniqueIndex" json:"provider_order_ref"`
	ProviderChargeRef *string   `gorm:"type:varchar(120)" json:"provider_charge_ref"`
	ProviderSignature string    `gorm:"type:varchar(255)" json:"-"`
	Status            string    `gorm:"type:varchar(40);not null;default:'created'" json:"status"`
	CustomerID        *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Customer struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string    `gorm:"type:varchar(180)" json:"name"`
	Email               string    `gorm:"type:varchar(180);index" json:"email"`
	Phone               string    `gorm:"type:varchar(50);index" json:"phone"`
	ProviderCustomerRef string    `gorm:"type:varchar(120)" json:"-"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Complaint statuses.
const (
	ComplaintStatusNew        = "New"
	ComplaintStatusInProgress = "In Progress"
	ComplaintStatusResolved   = "Resolved"
)

type Complaint struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(180);not null" json:"name"`
	Phone         string     `gorm:"type:varchar(50);not null" json:"phone"`
	Place         string     `gorm:"type:varchar(180)" json:"place"`
	Category      string     `gorm:"type:varchar(50)" json:"category"`       // Breakfast, Lunch, Dinner
	ComplaintType string     `gorm:"type:varchar(50)" json:"complaint_type"` // Delivery, Food, Other
	Description   string     `gorm:"type:text" json:"description"`
	Status        string     `gorm:"type:varchar(40);not null;default:'New'" json:"status"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type TiffinPlan struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PlanCode    string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"plan_code"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	PriceMinor  int64     `gorm:"not null" json:"price_minor"`
	Currency    string    `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
	Frequency   string    `gorm:"type:varchar(20);not null;default:'daily'" json:"frequency"` // daily, weekly, monthly
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
