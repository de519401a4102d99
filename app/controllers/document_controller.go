package controllers

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/docstore"
	"github.com/tollsetu/fastag-portal/internal/pkg/env"
	"github.com/tollsetu/fastag-portal/internal/pkg/jobqueue"
	"github.com/tollsetu/fastag-portal/internal/pkg/upload"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

var validDocumentTypes = map[string]bool{
	models.DocumentTypeRCBook:       true,
	models.DocumentTypeIDProof:      true,
	models.DocumentTypeVehiclePhoto: true,
}

func maxUploadBytes() int64 {
	return int64(env.GetEnvInt("MAX_KYC_UPLOAD_MB", 10)) * 1024 * 1024
}

// HandleUploadDocument stores one KYC file for an application. Re-uploading
// the same document type replaces the previous file.
func HandleUploadDocument(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	app, err := loadOwnedApplication(c.Params("uuid"), userCtx)
	if err != nil {
		return applicationLookupError(c, err)
	}
	if !app.IsOpen() {
		return respondErr(c, fiber.StatusConflict, "Documents can only be changed while the application is open")
	}

	docType := strings.TrimSpace(c.FormValue("type"))
	if !validDocumentTypes[docType] {
		return respondErr(c, fiber.StatusBadRequest, "Document type must be rc_book, id_proof or vehicle_photo")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondErr(c, fiber.StatusBadRequest, "A file upload is required")
	}
	if fileHeader.Size > maxUploadBytes() {
		return respondErr(c, fiber.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Errorf("upload open failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Errorf("upload read failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to read upload")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mime, err := upload.ValidateKycFileBySniff(fileHeader.Filename, head)
	if err != nil {
		return respondErr(c, fiber.StatusBadRequest, err.Error())
	}

	store, err := docstore.GetClient()
	if err != nil {
		log.Errorf("document store unavailable: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Document storage is unavailable")
	}

	docUUID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	objectKey := store.Config().ObjectKey(app.UUID, docUUID, ext, time.Now())

	if err := store.PutObject(c.Context(), objectKey, data, mime); err != nil {
		log.Errorf("document upload failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to store document")
	}

	repo := repository.GetGlobalFactory().GetDocumentRepository()

	// Replace a previous upload of the same type
	if previous, err := repo.GetByApplicationAndType(app.ID, docType); err == nil {
		if err := repo.Delete(previous.ID); err != nil {
			log.Warnf("failed to remove previous document record %d: %v", previous.ID, err)
		} else {
			if err := store.DeleteObject(c.Context(), previous.ObjectKey); err != nil {
				log.Warnf("failed to remove previous document object %s: %v", previous.ObjectKey, err)
			}
			if previous.HasPreview() {
				if err := store.DeleteObject(c.Context(), previous.PreviewKey); err != nil {
					log.Warnf("failed to remove previous preview %s: %v", previous.PreviewKey, err)
				}
			}
		}
	}

	doc := &models.KycDocument{
		UUID:          docUUID,
		ApplicationID: app.ID,
		UserID:        userCtx.UserID,
		Type:          docType,
		FileName:      filepath.Base(fileHeader.Filename),
		ObjectKey:     objectKey,
		MimeType:      mime,
		SizeBytes:     fileHeader.Size,
	}
	if err := repo.Create(doc); err != nil {
		log.Errorf("document record create failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to store document")
	}

	if upload.IsImageMime(mime) {
		payload := jobqueue.DocumentPreviewJobPayload{
			DocumentID:   doc.ID,
			DocumentUUID: doc.UUID,
			ObjectKey:    doc.ObjectKey,
		}
		if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeDocumentPreview, payload.ToMap()); err != nil {
			log.Errorf("failed to enqueue preview job for document %s: %v", doc.UUID, err)
		}
	}

	return respondCreated(c, doc)
}

// HandleListDocuments returns the documents attached to an application.
func HandleListDocuments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	app, err := loadOwnedApplication(c.Params("uuid"), userCtx)
	if err != nil {
		return applicationLookupError(c, err)
	}

	docs, err := repository.GetGlobalFactory().GetDocumentRepository().GetByApplicationID(app.ID)
	if err != nil {
		log.Errorf("document list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load documents")
	}

	return respondOK(c, fiber.Map{"documents": docs})
}

// HandleGetDocumentFile streams a document back to its owner.
func HandleGetDocumentFile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetDocumentRepository()
	doc, err := repo.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Document not found")
		}
		log.Errorf("document lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load document")
	}
	if doc.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return respondErr(c, fiber.StatusNotFound, "Document not found")
	}

	return serveDocumentObject(c, doc, c.Query("variant") == "preview")
}

// serveDocumentObject streams the original or preview object for a document.
func serveDocumentObject(c *fiber.Ctx, doc *models.KycDocument, preview bool) error {
	store, err := docstore.GetClient()
	if err != nil {
		log.Errorf("document store unavailable: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Document storage is unavailable")
	}

	objectKey := doc.ObjectKey
	if preview {
		if !doc.HasPreview() {
			return respondErr(c, fiber.StatusNotFound, "No preview available for this document")
		}
		objectKey = doc.PreviewKey
	}

	data, contentType, err := store.GetObject(c.Context(), objectKey)
	if err != nil {
		log.Errorf("document fetch failed for %s: %v", objectKey, err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to fetch document")
	}

	if contentType == "" {
		contentType = doc.MimeType
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+doc.FileName+`"`)
	return c.Send(data)
}
