package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/internal/pkg/database"
	"github.com/tollsetu/fastag-portal/internal/pkg/docprocessor"
	"github.com/tollsetu/fastag-portal/internal/pkg/docstore"
	"github.com/tollsetu/fastag-portal/internal/pkg/upload"
)

// processDocumentPreviewJob renders and stores the review thumbnail for an
// uploaded KYC document and persists extracted capture metadata.
func (q *Queue) processDocumentPreviewJob(ctx context.Context, job *Job) error {
	payload, err := DocumentPreviewJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid document preview payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var doc models.KycDocument
	if err := db.First(&doc, payload.DocumentID).Error; err != nil {
		return fmt.Errorf("document %d not found: %w", payload.DocumentID, err)
	}

	store, err := docstore.GetClient()
	if err != nil {
		return fmt.Errorf("document store is not configured: %w", err)
	}

	original, contentType, err := store.GetObject(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to fetch document %s: %w", doc.UUID, err)
	}

	if !upload.IsImageMime(contentType) {
		// PDFs and other non-image documents get no preview
		log.Debugf("[JobQueue] Document %s is %s, skipping preview", doc.UUID, contentType)
		return nil
	}

	updates := map[string]interface{}{}

	meta := docprocessor.ExtractMetadata(doc.UUID, original)
	if meta.CapturedAt != nil {
		updates["captured_at"] = meta.CapturedAt
	}
	if meta.RawJSON != "" {
		updates["metadata_json"] = meta.RawJSON
	}

	preview, err := docprocessor.Preview(original)
	if err != nil {
		return fmt.Errorf("failed to render preview for document %s: %w", doc.UUID, err)
	}

	previewKey := store.Config().PreviewKey(payload.ObjectKey)
	if err := store.PutObject(ctx, previewKey, preview, "image/jpeg"); err != nil {
		return fmt.Errorf("failed to store preview for document %s: %w", doc.UUID, err)
	}
	updates["preview_key"] = previewKey

	if err := db.Model(&models.KycDocument{}).Where("id = ?", doc.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update document %s: %w", doc.UUID, err)
	}

	log.Infof("[JobQueue] Generated preview for document %s", doc.UUID)
	return nil
}
