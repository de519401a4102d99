package payment

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tollsetu/fastag-portal/app/models"
)

// WebhookUpdate is the field set applied to a payment record as one atomic
// persistence write during reconciliation.
type WebhookUpdate struct {
	Status        string
	RawPayload    string
	ProviderTxnID string     // empty keeps the stored value
	PaymentDate   *time.Time // nil keeps the stored value
}

// Repository provides DB operations used by the reconciliation service.
type Repository interface {
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByOrderID(orderID string) (*models.Payment, error)
	ApplyWebhookUpdate(id uint, update WebhookUpdate) error
	AddUserPayment(userID, paymentID uint) error
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetByOrderID(orderID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyWebhookUpdate writes the reconciled state in a single Updates call so
// replayed deliveries can never leave a half-written record behind.
func (r *gormRepository) ApplyWebhookUpdate(id uint, update WebhookUpdate) error {
	fields := map[string]interface{}{
		"status":          update.Status,
		"webhook_payload": update.RawPayload,
	}
	if update.ProviderTxnID != "" {
		fields["provider_txn_id"] = update.ProviderTxnID
	}
	if update.PaymentDate != nil {
		fields["payment_date"] = update.PaymentDate
	}
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

// AddUserPayment appends the payment to the user's payment index. The
// composite primary key plus DoNothing gives set semantics: re-adding an
// already-present payment succeeds without touching the row.
func (r *gormRepository) AddUserPayment(userID, paymentID uint) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "payment_id"},
		},
		DoNothing: true,
	}).Create(&models.UserPayment{UserID: userID, PaymentID: paymentID}).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
