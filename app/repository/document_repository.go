package repository

import (
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
)

// documentRepository implements the DocumentRepository interface
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository instance
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create creates a new document record in the database
func (r *documentRepository) Create(doc *models.KycDocument) error {
	return r.db.Create(doc).Error
}

// GetByID retrieves a document by its ID
func (r *documentRepository) GetByID(id uint) (*models.KycDocument, error) {
	var doc models.KycDocument
	err := r.db.First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByUUID retrieves a document by its UUID
func (r *documentRepository) GetByUUID(uuid string) (*models.KycDocument, error) {
	var doc models.KycDocument
	err := r.db.Where("uuid = ?", uuid).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByApplicationID retrieves all documents attached to an application
func (r *documentRepository) GetByApplicationID(applicationID uint) ([]models.KycDocument, error) {
	var docs []models.KycDocument
	err := r.db.Where("application_id = ?", applicationID).Order("created_at ASC").Find(&docs).Error
	return docs, err
}

// GetByApplicationAndType retrieves the document of one type for an application
func (r *documentRepository) GetByApplicationAndType(applicationID uint, docType string) (*models.KycDocument, error) {
	var doc models.KycDocument
	err := r.db.Where("application_id = ? AND type = ?", applicationID, docType).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update updates an existing document record
func (r *documentRepository) Update(doc *models.KycDocument) error {
	return r.db.Save(doc).Error
}

// Delete deletes a document record
func (r *documentRepository) Delete(id uint) error {
	return r.db.Delete(&models.KycDocument{}, id).Error
}
