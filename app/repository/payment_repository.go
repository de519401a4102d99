package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
)

// paymentRepository implements the PaymentRepository interface. It covers the
// read/listing side used by controllers; webhook writes go through the
// reconciliation repository in internal/pkg/payment.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetByID retrieves a payment by its ID
func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByUUID retrieves a payment by its UUID
func (r *paymentRepository) GetByUUID(uuid string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("uuid = ?", uuid).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByApplicationID retrieves all payments issued for an application
func (r *paymentRepository) GetByApplicationID(applicationID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("application_id = ?", applicationID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// GetOpenByApplicationID retrieves the newest payment for an application that
// is not in a terminal state, so an unexpired link can be re-served instead of
// issuing a second one.
func (r *paymentRepository) GetOpenByApplicationID(applicationID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("application_id = ? AND status IN ?", applicationID,
		[]string{models.PaymentStatusCreated, models.PaymentStatusAttempted}).
		Order("created_at DESC").First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByUserID retrieves a user's payments via their payment index
func (r *paymentRepository) GetByUserID(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.
		Joins("JOIN user_payments ON user_payments.payment_id = payments.id").
		Where("user_payments.user_id = ?", userID).
		Order("payments.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&payments).Error
	return payments, err
}

// List retrieves a paginated list of payments, optionally filtered by status
func (r *paymentRepository) List(status string, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&payments).Error
	return payments, err
}

// Count returns the total number of payments
func (r *paymentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of payments in the given status
func (r *paymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// SumPaidAmount returns the total captured amount in minor units
func (r *paymentRepository) SumPaidAmount() (int64, error) {
	var total int64
	err := r.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// GetDailyPaidStats returns daily captured-payment counts and amounts for a
// date range. Completion time is what the provider reported, so days are
// grouped on payment_date rather than created_at.
func (r *paymentRepository) GetDailyPaidStats(startDate, endDate time.Time) ([]models.DailyPaymentStats, error) {
	var results []struct {
		Date   string
		Count  int64
		Amount int64
	}

	// DATE_FORMAT for MySQL compatibility and proper date formatting
	err := r.db.Model(&models.Payment{}).
		Select("DATE_FORMAT(payment_date, '%Y-%m-%d') as date, COUNT(*) as count, COALESCE(SUM(amount), 0) as amount").
		Where("status = ? AND payment_date BETWEEN ? AND ?", models.PaymentStatusPaid, startDate, endDate).
		Group("DATE_FORMAT(payment_date, '%Y-%m-%d')").
		Order("date").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily payment stats: %w", err)
	}

	stats := make([]models.DailyPaymentStats, len(results))
	for i, result := range results {
		stats[i] = models.DailyPaymentStats{
			Date:   result.Date,
			Count:  int(result.Count),
			Amount: result.Amount,
		}
	}

	return stats, nil
}

// ListWebhookEvents retrieves a paginated list of stored webhook events
func (r *paymentRepository) ListWebhookEvents(offset, limit int) ([]models.PaymentWebhookEvent, error) {
	var events []models.PaymentWebhookEvent
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// CountWebhookEvents returns the total number of stored webhook events
func (r *paymentRepository) CountWebhookEvents() (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentWebhookEvent{}).Count(&count).Error
	return count, err
}
