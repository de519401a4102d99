package models

import "time"

const (
	DeliveryStatusInitiated = "initiated"
	DeliveryStatusShipped   = "shipped"
	DeliveryStatusDelivered = "delivered"
)

// Delivery tracks the shipment of a tag after its application fee is paid.
// The delivery address is snapshotted from the application at creation time
// so later address edits do not rewrite shipment history.
type Delivery struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UUID           string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	ApplicationID  uint       `gorm:"not null;uniqueIndex" json:"application_id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	PaymentID      uint       `gorm:"not null;index" json:"payment_id"`
	Status         string     `gorm:"type:varchar(16);not null;default:'initiated';index" json:"status"`
	Courier        string     `gorm:"type:varchar(100);default:''" json:"courier"`
	TrackingNumber string     `gorm:"type:varchar(100);default:''" json:"tracking_number"`
	Address        string     `gorm:"type:text;not null" json:"address"`
	City           string     `gorm:"type:varchar(100)" json:"city"`
	State          string     `gorm:"type:varchar(100)" json:"state"`
	Pincode        string     `gorm:"type:varchar(10)" json:"pincode"`
	ShippedAt      *time.Time `gorm:"type:timestamp;default:null" json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `gorm:"type:timestamp;default:null" json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
