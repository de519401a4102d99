package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
)

// Structured reconciliation failures. Controllers map these to client errors;
// anything else is an internal error.
var (
	ErrUnhandledEvent     = errors.New("unhandled webhook event type")
	ErrMissingIdentifiers = errors.New("webhook carries no payment link identifier")
	ErrRecordNotFound     = errors.New("payment record not found for webhook identifiers")
)

// Service applies verified webhook events to stored payment records.
type Service struct {
	repo Repository
}

// NewService creates a reconciliation service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// RecordWebhookEvent persists webhook payloads idempotently. Deliveries
// without a provider event id are deduplicated by a hash of the body.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        models.PaymentProviderRazorpay,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// FindByOrderID resolves a payment by its provider order id.
func (s *Service) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	_ = ctx
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrMissingIdentifiers
	}
	p, err := s.repo.GetByOrderID(strings.TrimSpace(orderID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	return p, err
}

// Reconcile updates exactly one payment record to reflect the provider's
// report. It returns the updated record and the status the record held
// before the write, so callers can act on the transition (paid emails,
// delivery creation) without re-reading history.
//
// Replays are idempotent in effect: the same delivery applied twice maps to
// the same end status, with the audit blob and timestamp overwritten by the
// latest payload. Out-of-order deliveries are applied last-write-wins; no
// sequence check guards regressions.
func (s *Service) Reconcile(ctx context.Context, ev *WebhookEvent, rawBody []byte) (*models.Payment, string, error) {
	_ = ctx
	if ev == nil {
		return nil, "", errors.New("nil webhook event")
	}
	if !IsHandledEvent(ev.Event) {
		return nil, "", ErrUnhandledEvent
	}

	orderID := ev.OrderID()
	if orderID == "" {
		return nil, "", ErrMissingIdentifiers
	}

	record, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrRecordNotFound
		}
		return nil, "", err
	}
	prevStatus := record.Status

	update := WebhookUpdate{
		Status:     MapProviderStatus(ev.Event, ev.StatusToken()),
		RawPayload: string(rawBody),
	}
	if p := ev.PaymentEntity(); p != nil && strings.TrimSpace(p.ID) != "" {
		update.ProviderTxnID = strings.TrimSpace(p.ID)
	}
	if update.Status == models.PaymentStatusPaid {
		update.PaymentDate = ev.CompletionTime()
	}

	if err := s.repo.ApplyWebhookUpdate(record.ID, update); err != nil {
		return nil, prevStatus, err
	}

	if record.UserID != 0 {
		if err := s.repo.AddUserPayment(record.UserID, record.ID); err != nil {
			return nil, prevStatus, err
		}
	}

	updated, err := s.repo.GetByID(record.ID)
	if err != nil {
		return nil, prevStatus, err
	}
	return updated, prevStatus, nil
}
