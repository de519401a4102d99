package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/database"
	"github.com/tollsetu/fastag-portal/internal/pkg/env"
	"github.com/tollsetu/fastag-portal/internal/pkg/jobqueue"
	"github.com/tollsetu/fastag-portal/internal/pkg/payment"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

// Issuance fees per vehicle class in paise. Overridable per deployment via
// FASTAG_FEE_<CLASS>_PAISE.
var defaultClassFees = map[string]int64{
	models.VehicleClassVC4:  40000,
	models.VehicleClassVC5:  50000,
	models.VehicleClassVC6:  60000,
	models.VehicleClassVC7:  60000,
	models.VehicleClassVC12: 80000,
}

func feeForClass(class string) int64 {
	fee, ok := defaultClassFees[class]
	if !ok {
		fee = defaultClassFees[models.VehicleClassVC4]
	}
	if override := env.GetEnvInt(fmt.Sprintf("FASTAG_FEE_%s_PAISE", class), 0); override > 0 {
		fee = int64(override)
	}
	return fee
}

// HandleInitiatePayment issues a payment link for an approved application.
// An existing open link for the same application is re-served instead of
// creating a second one.
func HandleInitiatePayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	app, err := loadOwnedApplication(c.Params("uuid"), userCtx)
	if err != nil {
		return applicationLookupError(c, err)
	}
	if !app.IsPayable() {
		return respondErr(c, fiber.StatusConflict, "Payment can only be initiated for approved applications")
	}

	repos := repository.GetGlobalRepositories()

	if existing, err := repos.Payment.GetOpenByApplicationID(app.ID); err == nil {
		return respondOK(c, paymentView(existing))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("open payment lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to initiate payment")
	}

	if paid, err := repos.Payment.GetByApplicationID(app.ID); err == nil {
		for i := range paid {
			if paid[i].IsPaid() {
				return respondErr(c, fiber.StatusConflict, "This application is already paid")
			}
		}
	}

	user, err := repos.User.GetByID(app.UserID)
	if err != nil {
		log.Errorf("payment user lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to initiate payment")
	}

	amount := feeForClass(app.VehicleClass)
	client := payment.NewClientFromEnv()

	input := payment.CreatePaymentLinkInput{
		Amount:      amount,
		Currency:    "INR",
		Description: fmt.Sprintf("FASTag issuance fee for %s", app.VehicleNumber),
		ReferenceID: app.UUID,
	}
	if domain := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"); domain != "" {
		input.CallbackURL = domain + "/payments/callback"
	}
	input.Customer.Name = user.Name
	input.Customer.Email = user.Email
	input.Customer.Phone = user.Phone

	link, err := client.CreatePaymentLink(c.Context(), input)
	if err != nil {
		log.Errorf("payment link creation failed for application %s: %v", app.UUID, err)
		return respondErr(c, fiber.StatusBadGateway, "Payment provider is unavailable, please retry")
	}

	record := &models.Payment{
		UUID:           uuid.New().String(),
		UserID:         app.UserID,
		ApplicationID:  app.ID,
		OrderID:        link.ID,
		Amount:         amount,
		Currency:       "INR",
		CustomerName:   user.Name,
		CustomerEmail:  user.Email,
		CustomerPhone:  user.Phone,
		Status:         models.PaymentStatusCreated,
		PaymentLinkURL: link.ShortURL,
	}
	if err := payment.NewRepository(database.GetDB()).Create(record); err != nil {
		log.Errorf("payment record create failed for order %s: %v", link.ID, err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to store payment")
	}

	return respondCreated(c, paymentView(record))
}

// HandleListPayments returns the caller's payment index, newest first.
func HandleListPayments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	payments, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		log.Errorf("payment list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load payments")
	}

	views := make([]fiber.Map, 0, len(payments))
	for i := range payments {
		views = append(views, paymentView(&payments[i]))
	}
	return respondOK(c, fiber.Map{"payments": views})
}

// HandleGetPayment returns one payment by UUID for its owner.
func HandleGetPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	record, err := repo.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Payment not found")
		}
		log.Errorf("payment lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load payment")
	}
	if record.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return respondErr(c, fiber.StatusNotFound, "Payment not found")
	}

	return respondOK(c, paymentView(record))
}

// webhookReconciler is the slice of the payment service the webhook handler
// touches. Tests substitute a fake to pin the response contract.
type webhookReconciler interface {
	RecordWebhookEvent(ctx context.Context, in payment.WebhookEventInput) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error
	Reconcile(ctx context.Context, ev *payment.WebhookEvent, rawBody []byte) (*models.Payment, string, error)
}

// HandlePaymentWebhook ingests provider webhook deliveries. The signature is
// verified over the exact raw body bytes before anything is parsed; only
// verified payloads reach the reconciler.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	return handlePaymentWebhook(c, payment.NewServiceFromDB(database.GetDB()))
}

func handlePaymentWebhook(c *fiber.Ctx, svc webhookReconciler) error {
	// Fiber reuses its buffers after the handler returns, so the audit
	// copy must not alias the request body.
	rawBody := append([]byte(nil), c.BodyRaw()...)

	secret := payment.WebhookSecret()
	signature := strings.TrimSpace(c.Get("X-Razorpay-Signature"))
	if secret == "" || signature == "" {
		return respondErr(c, fiber.StatusBadRequest, "missing signature or secret")
	}
	if !payment.VerifyWebhookSignature(rawBody, signature, secret) {
		log.Warnf("webhook signature rejected from %s: expected %s, got %s",
			GetClientIP(c), payment.SignPayload(rawBody, secret), signature)
		return respondErr(c, fiber.StatusBadRequest, "invalid signature")
	}

	ev, err := payment.ParseWebhookEvent(rawBody)
	if err != nil {
		log.Errorf("webhook payload unparsable: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "malformed webhook payload: "+err.Error())
	}

	created, event, err := svc.RecordWebhookEvent(c.Context(), payment.WebhookEventInput{
		ProviderEventID: c.Get("X-Razorpay-Event-Id"),
		EventType:       ev.Event,
		PayloadJSON:     string(rawBody),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("webhook event store failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "failed to store webhook event")
	}
	if !created && event.IsApplied() {
		// Same delivery seen before and applied; tell the provider to stop.
		return respondOK(c, fiber.Map{
			"event":     event.EventType,
			"duplicate": true,
		})
	}
	// A duplicate whose first pass failed falls through: provider redelivery
	// is the only retry mechanism, so the event must be reprocessed.

	updated, prevStatus, err := svc.Reconcile(c.Context(), ev, rawBody)
	if err != nil {
		if markErr := svc.MarkWebhookProcessed(c.Context(), event.ID, err); markErr != nil {
			log.Errorf("webhook processed-mark failed: %v", markErr)
		}
		switch {
		case errors.Is(err, payment.ErrUnhandledEvent):
			return respondErr(c, fiber.StatusBadRequest, "unhandled event type")
		case errors.Is(err, payment.ErrMissingIdentifiers):
			return respondErr(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, payment.ErrRecordNotFound):
			return respondErr(c, fiber.StatusBadRequest, err.Error())
		default:
			log.Errorf("webhook reconciliation failed: %v", err)
			return respondErr(c, fiber.StatusInternalServerError, "failed to apply webhook")
		}
	}

	if markErr := svc.MarkWebhookProcessed(c.Context(), event.ID, nil); markErr != nil {
		log.Errorf("webhook processed-mark failed: %v", markErr)
	}

	if prevStatus != models.PaymentStatusPaid && updated.IsPaid() {
		onPaymentCaptured(updated)
	}

	return respondOK(c, fiber.Map{
		"order_id": updated.OrderID,
		"status":   updated.Status,
	})
}

// onPaymentCaptured runs the post-capture side effects exactly once per
// payment: delivery creation, in-app notification and confirmation mail.
func onPaymentCaptured(p *models.Payment) {
	repos := repository.GetGlobalRepositories()

	app, err := repos.Application.GetByID(p.ApplicationID)
	if err != nil {
		log.Errorf("post-payment application lookup failed for payment %d: %v", p.ID, err)
		return
	}

	if _, err := repos.Delivery.GetByApplicationID(app.ID); errors.Is(err, gorm.ErrRecordNotFound) {
		delivery := &models.Delivery{
			UUID:          uuid.New().String(),
			ApplicationID: app.ID,
			UserID:        app.UserID,
			PaymentID:     p.ID,
			Status:        models.DeliveryStatusInitiated,
			Address:       app.DeliveryAddress,
			City:          app.City,
			State:         app.State,
			Pincode:       app.Pincode,
		}
		if err := repos.Delivery.Create(delivery); err != nil {
			log.Errorf("delivery create failed for application %d: %v", app.ID, err)
		}
	} else if err != nil {
		log.Errorf("delivery lookup failed for application %d: %v", app.ID, err)
	}

	content := fmt.Sprintf("Payment of ₹%.2f for vehicle %s received. Your FASTag will be dispatched shortly.",
		float64(p.Amount)/100, app.VehicleNumber)
	notification := &models.Notification{
		UserID:      app.UserID,
		Type:        "payment",
		Content:     content,
		ReferenceID: p.ID,
	}
	if err := repos.Notification.Create(notification); err != nil {
		log.Errorf("payment notification create failed: %v", err)
	}

	if p.CustomerEmail != "" {
		payload := jobqueue.EmailNotificationJobPayload{
			UserID:  app.UserID,
			To:      p.CustomerEmail,
			Subject: "FASTag payment confirmed",
			Body: fmt.Sprintf("<p>Hello %s,</p><p>%s</p>",
				p.CustomerName, content),
		}
		if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeEmailNotification, payload.ToMap()); err != nil {
			log.Errorf("failed to enqueue payment mail: %v", err)
		}
	}
}

func paymentView(p *models.Payment) fiber.Map {
	return fiber.Map{
		"uuid":             p.UUID,
		"application_id":   p.ApplicationID,
		"order_id":         p.OrderID,
		"amount":           p.Amount,
		"currency":         p.Currency,
		"status":           p.Status,
		"payment_link_url": p.PaymentLinkURL,
		"provider_txn_id":  p.ProviderTxnID,
		"payment_date":     p.PaymentDate,
		"created_at":       p.CreatedAt,
	}
}
