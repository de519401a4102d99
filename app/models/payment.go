package models

import "time"

// Internal payment statuses. CREATED is set when the payment link is issued;
// every later value is written exclusively by the webhook reconciler.
const (
	PaymentStatusCreated   = "created"
	PaymentStatusAttempted = "attempted"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Payment is one payment link issued to a customer for one application.
// OrderID is the provider's payment-link id and the sole correlation key for
// webhook traffic; it is unique and never rewritten after creation.
type Payment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UUID           string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	ApplicationID  uint       `gorm:"not null;index" json:"application_id"`
	OrderID        string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`
	Amount         int64      `gorm:"not null" json:"amount"` // minor units (paise)
	Currency       string     `gorm:"type:varchar(8);not null;default:'INR'" json:"currency"`
	CustomerName   string     `gorm:"type:varchar(150)" json:"customer_name"`
	CustomerEmail  string     `gorm:"type:varchar(200)" json:"customer_email"`
	CustomerPhone  string     `gorm:"type:varchar(20)" json:"customer_phone"`
	Status         string     `gorm:"type:varchar(16);not null;default:'created';index" json:"status"`
	ProviderTxnID  string     `gorm:"type:varchar(64);default:''" json:"provider_txn_id"` // provider payment id once an attempt succeeds
	PaymentLinkURL string     `gorm:"type:varchar(255)" json:"payment_link_url"`
	WebhookPayload string     `gorm:"type:longtext" json:"-"` // last verified webhook body (audit)
	PaymentDate    *time.Time `gorm:"type:timestamp;default:null" json:"payment_date,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsPaid reports whether the payment has been reconciled as captured.
func (p *Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}

// UserPayment is the join row backing a user's payment index. The composite
// unique index gives the index set semantics: re-adding an existing payment
// is a no-op at the storage layer.
type UserPayment struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PaymentID uint      `gorm:"primaryKey;autoIncrement:false" json:"payment_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
