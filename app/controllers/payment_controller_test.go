package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/internal/pkg/payment"
)

const webhookTestSecret = "test-webhook-secret"

var paymentFailedBody = []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_test1","status":"failed","payment_link_id":"plink_test1"}}}}`)

// fakeWebhookService scripts the reconciler's answers so the HTTP layer can
// be pinned without a database.
type fakeWebhookService struct {
	created   bool
	stored    *models.PaymentWebhookEvent
	recordErr error

	reconciled   *models.Payment
	prevStatus   string
	reconcileErr error

	recordCalls    int
	reconcileCalls int
	processedWith  []error
}

func (f *fakeWebhookService) RecordWebhookEvent(_ context.Context, in payment.WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	f.recordCalls++
	if f.recordErr != nil {
		return false, nil, f.recordErr
	}
	if f.stored == nil {
		f.stored = &models.PaymentWebhookEvent{ID: 1, EventType: in.EventType}
	}
	return f.created, f.stored, nil
}

func (f *fakeWebhookService) MarkWebhookProcessed(_ context.Context, _ uint, processingErr error) error {
	f.processedWith = append(f.processedWith, processingErr)
	return nil
}

func (f *fakeWebhookService) Reconcile(_ context.Context, _ *payment.WebhookEvent, _ []byte) (*models.Payment, string, error) {
	f.reconcileCalls++
	if f.reconcileErr != nil {
		return nil, f.prevStatus, f.reconcileErr
	}
	return f.reconciled, f.prevStatus, nil
}

func newWebhookTestApp(svc *fakeWebhookService) *fiber.App {
	app := fiber.New()
	app.Post("/payments/webhook", func(c *fiber.Ctx) error {
		return handlePaymentWebhook(c, svc)
	})
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) (*http.Response, APIResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Event-Id", "evt_test1")
	if signature != "" {
		req.Header.Set("X-Razorpay-Signature", signature)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope APIResponse
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return resp, envelope
}

func TestWebhookMissingSignature(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	svc := &fakeWebhookService{}
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, "")

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Equal(t, "missing signature or secret", envelope.Message)
	assert.Nil(t, envelope.Data)
	assert.Zero(t, svc.recordCalls)
}

func TestWebhookMissingSecret(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")

	svc := &fakeWebhookService{}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing signature or secret", envelope.Message)
	assert.Zero(t, svc.recordCalls)
}

func TestWebhookTamperedSignature(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	svc := &fakeWebhookService{}
	// Signature computed over different bytes than the delivered body.
	tampered := payment.SignPayload([]byte(`{"event":"payment.failed","tampered":true}`), webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, tampered)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Equal(t, "invalid signature", envelope.Message)
	assert.Nil(t, envelope.Data)
	// Nothing recorded, nothing reconciled.
	assert.Zero(t, svc.recordCalls)
	assert.Zero(t, svc.reconcileCalls)
}

func TestWebhookMalformedPayload(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	svc := &fakeWebhookService{}
	body := []byte(`{"event":`)
	sig := payment.SignPayload(body, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), body, sig)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.True(t, strings.HasPrefix(envelope.Message, "malformed webhook payload: "))
	// The decoder's own error rides along for diagnosis.
	assert.Greater(t, len(envelope.Message), len("malformed webhook payload: "))
	assert.Nil(t, envelope.Data)
	assert.Zero(t, svc.recordCalls)
}

func TestWebhookAppliedDuplicateShortCircuits(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	processedAt := time.Now().Add(-time.Minute)
	svc := &fakeWebhookService{
		created: false,
		stored: &models.PaymentWebhookEvent{
			ID:          7,
			EventType:   payment.EventPaymentFailed,
			ProcessedAt: &processedAt,
		},
	}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["duplicate"])
	assert.Zero(t, svc.reconcileCalls)
}

func TestWebhookFailedDeliveryIsReprocessedOnRetry(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	// First pass failed and stored its error; the provider redelivers the
	// same event id. The retry must reach the reconciler, not the duplicate
	// short-circuit, because redelivery is the only retry mechanism.
	processedAt := time.Now().Add(-time.Minute)
	svc := &fakeWebhookService{
		created: false,
		stored: &models.PaymentWebhookEvent{
			ID:              7,
			EventType:       payment.EventPaymentFailed,
			ProcessedAt:     &processedAt,
			ProcessingError: "payment record not found for webhook identifiers",
		},
		reconciled: &models.Payment{OrderID: "plink_test1", Status: models.PaymentStatusFailed},
		prevStatus: models.PaymentStatusCreated,
	}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)
	assert.Equal(t, 1, svc.reconcileCalls)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "plink_test1", data["order_id"])
	assert.Equal(t, models.PaymentStatusFailed, data["status"])
	// The stored error is cleared once the retry succeeds.
	require.Len(t, svc.processedWith, 1)
	assert.NoError(t, svc.processedWith[0])
}

func TestWebhookInterruptedDeliveryIsReprocessedOnRetry(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	// The first pass crashed between the insert and the processed mark:
	// the stored row has neither a timestamp nor an error.
	svc := &fakeWebhookService{
		created: false,
		stored: &models.PaymentWebhookEvent{
			ID:        8,
			EventType: payment.EventPaymentFailed,
		},
		reconciled: &models.Payment{OrderID: "plink_test1", Status: models.PaymentStatusFailed},
		prevStatus: models.PaymentStatusCreated,
	}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, _ := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.reconcileCalls)
}

func TestWebhookUnhandledEvent(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	body := []byte(`{"event":"invoice.paid","payload":{}}`)
	svc := &fakeWebhookService{
		created:      true,
		reconcileErr: payment.ErrUnhandledEvent,
	}
	sig := payment.SignPayload(body, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), body, sig)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unhandled event type", envelope.Message)
	// The audit row keeps the failure for the admin event listing.
	require.Len(t, svc.processedWith, 1)
	assert.ErrorIs(t, svc.processedWith[0], payment.ErrUnhandledEvent)
}

func TestWebhookRecordNotFound(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	svc := &fakeWebhookService{
		created:      true,
		reconcileErr: payment.ErrRecordNotFound,
	}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, payment.ErrRecordNotFound.Error(), envelope.Message)
	assert.Nil(t, envelope.Data)
}

func TestWebhookReconcileInternalError(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	svc := &fakeWebhookService{
		created:      true,
		reconcileErr: errors.New("driver: bad connection"),
	}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to apply webhook", envelope.Message)
	require.Len(t, svc.processedWith, 1)
	assert.Error(t, svc.processedWith[0])
}

func TestWebhookSuccess(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", webhookTestSecret)

	svc := &fakeWebhookService{
		created:    true,
		reconciled: &models.Payment{OrderID: "plink_test1", Status: models.PaymentStatusFailed},
		prevStatus: models.PaymentStatusCreated,
	}
	sig := payment.SignPayload(paymentFailedBody, webhookTestSecret)
	resp, envelope := postWebhook(t, newWebhookTestApp(svc), paymentFailedBody, sig)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "plink_test1", data["order_id"])
	assert.Equal(t, models.PaymentStatusFailed, data["status"])
	require.Len(t, svc.processedWith, 1)
	assert.NoError(t, svc.processedWith[0])
}
