package models

import "time"

// KYC document types accepted for a FASTag application.
const (
	DocumentTypeRCBook       = "rc_book"
	DocumentTypeIDProof      = "id_proof"
	DocumentTypeVehiclePhoto = "vehicle_photo"
)

// KycDocument is the metadata row for one uploaded KYC file. The file itself
// lives in object storage under ObjectKey; PreviewKey points at the JPEG
// thumbnail rendered for the admin review screen (empty for PDFs).
type KycDocument struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	ApplicationID uint       `gorm:"not null;index" json:"application_id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Type          string     `gorm:"type:varchar(32);not null" json:"type" validate:"oneof=rc_book id_proof vehicle_photo"`
	FileName      string     `gorm:"type:varchar(255);not null" json:"file_name"`
	ObjectKey     string     `gorm:"type:varchar(255);not null" json:"-"`
	PreviewKey    string     `gorm:"type:varchar(255);default:''" json:"-"`
	MimeType      string     `gorm:"type:varchar(100)" json:"mime_type"`
	SizeBytes     int64      `json:"size_bytes"`
	CapturedAt    *time.Time `gorm:"type:timestamp;default:null" json:"captured_at,omitempty"` // from EXIF when present
	MetadataJSON  string     `gorm:"type:longtext" json:"-"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasPreview reports whether a thumbnail was rendered for this document.
func (d *KycDocument) HasPreview() bool {
	return d.PreviewKey != ""
}
