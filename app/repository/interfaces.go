package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// ApplicationRepository defines the interface for FASTag application operations
type ApplicationRepository interface {
	Create(app *models.VehicleApplication) error
	GetByID(id uint) (*models.VehicleApplication, error)
	GetByUUID(uuid string) (*models.VehicleApplication, error)
	GetByUserID(userID uint, offset, limit int) ([]models.VehicleApplication, error)
	GetByVehicleNumber(vehicleNumber string) (*models.VehicleApplication, error)
	Update(app *models.VehicleApplication) error
	UpdateStatus(id uint, status string, reviewerID *uint, remark string) error
	Delete(id uint) error
	List(status string, offset, limit int) ([]models.VehicleApplication, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	CountByUserID(userID uint) (int64, error)
	HasOpenApplication(userID uint, vehicleNumber string) (bool, error)
}

// DocumentRepository defines the interface for KYC document metadata operations
type DocumentRepository interface {
	Create(doc *models.KycDocument) error
	GetByID(id uint) (*models.KycDocument, error)
	GetByUUID(uuid string) (*models.KycDocument, error)
	GetByApplicationID(applicationID uint) ([]models.KycDocument, error)
	GetByApplicationAndType(applicationID uint, docType string) (*models.KycDocument, error)
	Update(doc *models.KycDocument) error
	Delete(id uint) error
}

// PaymentRepository defines the interface for payment listing and admin queries.
// The webhook reconciliation path has its own repository in internal/pkg/payment.
type PaymentRepository interface {
	GetByID(id uint) (*models.Payment, error)
	GetByUUID(uuid string) (*models.Payment, error)
	GetByApplicationID(applicationID uint) ([]models.Payment, error)
	GetOpenByApplicationID(applicationID uint) (*models.Payment, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Payment, error)
	List(status string, offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	SumPaidAmount() (int64, error)
	GetDailyPaidStats(startDate, endDate time.Time) ([]models.DailyPaymentStats, error)
	ListWebhookEvents(offset, limit int) ([]models.PaymentWebhookEvent, error)
	CountWebhookEvents() (int64, error)
}

// DeliveryRepository defines the interface for tag shipment operations
type DeliveryRepository interface {
	Create(delivery *models.Delivery) error
	GetByID(id uint) (*models.Delivery, error)
	GetByUUID(uuid string) (*models.Delivery, error)
	GetByApplicationID(applicationID uint) (*models.Delivery, error)
	GetByUserID(userID uint) ([]models.Delivery, error)
	Update(delivery *models.Delivery) error
	List(status string, offset, limit int) ([]models.Delivery, error)
	CountByStatus(status string) (int64, error)
}

// NotificationRepository defines the interface for user notification operations
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkAsRead(id uint, userID uint) error
	MarkAllAsRead(userID uint) error
}

// QueueRepository defines redis introspection over the job queue's keys
type QueueRepository interface {
	FindJobKeys() ([]string, error)
	GetListLength(key string) (int64, error)
	GetTTL(key string) (time.Duration, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Application  ApplicationRepository
	Document     DocumentRepository
	Payment      PaymentRepository
	Delivery     DeliveryRepository
	Notification NotificationRepository
	Queue        QueueRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Application:  NewApplicationRepository(db),
		Document:     NewDocumentRepository(db),
		Payment:      NewPaymentRepository(db),
		Delivery:     NewDeliveryRepository(db),
		Notification: NewNotificationRepository(db),
		Queue:        NewQueueRepository(),
	}
}
