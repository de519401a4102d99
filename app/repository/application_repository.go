package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
)

// applicationRepository implements the ApplicationRepository interface
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository instance
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create creates a new application in the database
func (r *applicationRepository) Create(app *models.VehicleApplication) error {
	return r.db.Create(app).Error
}

// GetByID retrieves an application by its ID
func (r *applicationRepository) GetByID(id uint) (*models.VehicleApplication, error) {
	var app models.VehicleApplication
	err := r.db.First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByUUID retrieves an application by its UUID
func (r *applicationRepository) GetByUUID(uuid string) (*models.VehicleApplication, error) {
	var app models.VehicleApplication
	err := r.db.Where("uuid = ?", uuid).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// GetByUserID retrieves a paginated list of a user's applications
func (r *applicationRepository) GetByUserID(userID uint, offset, limit int) ([]models.VehicleApplication, error) {
	var apps []models.VehicleApplication
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error
	return apps, err
}

// GetByVehicleNumber retrieves the most recent application for a vehicle number
func (r *applicationRepository) GetByVehicleNumber(vehicleNumber string) (*models.VehicleApplication, error) {
	var app models.VehicleApplication
	err := r.db.Where("vehicle_number = ?", vehicleNumber).Order("created_at DESC").First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Update updates an existing application
func (r *applicationRepository) Update(app *models.VehicleApplication) error {
	return r.db.Save(app).Error
}

// UpdateStatus transitions an application into the given review state in one update
func (r *applicationRepository) UpdateStatus(id uint, status string, reviewerID *uint, remark string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if reviewerID != nil {
		now := time.Now()
		updates["reviewed_by"] = *reviewerID
		updates["reviewed_at"] = now
	}
	if remark != "" {
		updates["review_remark"] = remark
	}
	return r.db.Model(&models.VehicleApplication{}).Where("id = ?", id).Updates(updates).Error
}

// Delete soft deletes an application
func (r *applicationRepository) Delete(id uint) error {
	return r.db.Delete(&models.VehicleApplication{}, id).Error
}

// List retrieves a paginated list of applications, optionally filtered by status
func (r *applicationRepository) List(status string, offset, limit int) ([]models.VehicleApplication, error) {
	var apps []models.VehicleApplication
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&apps).Error
	return apps, err
}

// Count returns the total number of applications
func (r *applicationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.VehicleApplication{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of applications in the given status
func (r *applicationRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.VehicleApplication{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of applications owned by a user
func (r *applicationRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.VehicleApplication{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// HasOpenApplication reports whether the user already has an unfinished
// application for the same vehicle number.
func (r *applicationRepository) HasOpenApplication(userID uint, vehicleNumber string) (bool, error) {
	var count int64
	err := r.db.Model(&models.VehicleApplication{}).
		Where("user_id = ? AND vehicle_number = ? AND status IN ?", userID, vehicleNumber,
			[]string{models.ApplicationStatusPending, models.ApplicationStatusUnderReview, models.ApplicationStatusApproved}).
		Count(&count).Error
	return count > 0, err
}
