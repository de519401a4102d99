package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Application status constants. Transitions are plain field updates driven by
// user and admin actions; there is no background state machine.
const (
	ApplicationStatusPending     = "pending"
	ApplicationStatusUnderReview = "under_review"
	ApplicationStatusApproved    = "approved"
	ApplicationStatusRejected    = "rejected"
	ApplicationStatusCancelled   = "cancelled"
)

// Vehicle class codes as used on Indian toll plazas.
const (
	VehicleClassVC4  = "VC4"  // car / jeep / van
	VehicleClassVC5  = "VC5"  // light commercial vehicle
	VehicleClassVC6  = "VC6"  // bus / truck (2 axle)
	VehicleClassVC7  = "VC7"  // 3 axle commercial
	VehicleClassVC12 = "VC12" // oversized (7+ axle)
)

// VehicleApplication is one FASTag request for one vehicle.
type VehicleApplication struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UUID            string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	User            User           `gorm:"foreignKey:UserID" json:"-"`
	VehicleNumber   string         `gorm:"type:varchar(20);not null;index" json:"vehicle_number" validate:"required,min=6,max=20"`
	VehicleClass    string         `gorm:"type:varchar(10);not null;default:'VC4'" json:"vehicle_class" validate:"oneof=VC4 VC5 VC6 VC7 VC12"`
	VehicleMake     string         `gorm:"type:varchar(100)" json:"vehicle_make" validate:"max=100"`
	VehicleModel    string         `gorm:"type:varchar(100)" json:"vehicle_model" validate:"max=100"`
	ChassisNumber   string         `gorm:"type:varchar(50)" json:"chassis_number" validate:"required,min=5,max=50"`
	EngineNumber    string         `gorm:"type:varchar(50)" json:"engine_number" validate:"required,min=5,max=50"`
	OwnerName       string         `gorm:"type:varchar(150);not null" json:"owner_name" validate:"required,min=3,max=150"`
	OwnerPhone      string         `gorm:"type:varchar(20);not null" json:"owner_phone" validate:"required,min=10,max=20"`
	DeliveryAddress string         `gorm:"type:text;not null" json:"delivery_address" validate:"required,min=10"`
	City            string         `gorm:"type:varchar(100);not null" json:"city" validate:"required,max=100"`
	State           string         `gorm:"type:varchar(100);not null" json:"state" validate:"required,max=100"`
	Pincode         string         `gorm:"type:varchar(10);not null" json:"pincode" validate:"required,len=6"`
	Status          string         `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ReviewRemark    string         `gorm:"type:text" json:"review_remark"`
	ReviewedBy      *uint          `gorm:"default:null" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *VehicleApplication) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// IsOpen reports whether the application can still be cancelled by its owner.
func (a *VehicleApplication) IsOpen() bool {
	return a.Status == ApplicationStatusPending || a.Status == ApplicationStatusUnderReview
}

// IsPayable reports whether a payment link may be issued for this application.
func (a *VehicleApplication) IsPayable() bool {
	return a.Status == ApplicationStatusApproved
}
