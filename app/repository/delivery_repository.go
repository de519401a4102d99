package repository

import (
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
)

// deliveryRepository implements the DeliveryRepository interface
type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository creates a new delivery repository instance
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

// Create creates a new delivery record
func (r *deliveryRepository) Create(delivery *models.Delivery) error {
	return r.db.Create(delivery).Error
}

// GetByID retrieves a delivery by its ID
func (r *deliveryRepository) GetByID(id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.First(&delivery, id).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// GetByUUID retrieves a delivery by its UUID
func (r *deliveryRepository) GetByUUID(uuid string) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.Where("uuid = ?", uuid).First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// GetByApplicationID retrieves the delivery for an application
func (r *deliveryRepository) GetByApplicationID(applicationID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.Where("application_id = ?", applicationID).First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

// GetByUserID retrieves all deliveries for a user
func (r *deliveryRepository) GetByUserID(userID uint) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&deliveries).Error
	return deliveries, err
}

// Update updates an existing delivery
func (r *deliveryRepository) Update(delivery *models.Delivery) error {
	return r.db.Save(delivery).Error
}

// List retrieves a paginated list of deliveries, optionally filtered by status
func (r *deliveryRepository) List(status string, offset, limit int) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&deliveries).Error
	return deliveries, err
}

// CountByStatus returns the number of deliveries in the given status
func (r *deliveryRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Delivery{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
