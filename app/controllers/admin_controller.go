package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/env"
	"github.com/tollsetu/fastag-portal/internal/pkg/jobqueue"
	"github.com/tollsetu/fastag-portal/internal/pkg/security"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

const docTokenTTL = 15 * time.Minute

func docTokenSecret() string {
	secret := env.GetEnv("DOC_TOKEN_SECRET", "")
	if secret == "" {
		secret = env.GetEnv("JWT_SECRET", "")
	}
	return secret
}

// HandleAdminStats returns the dashboard counters.
func HandleAdminStats(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	userCount, _ := repos.User.Count()
	applicationCount, _ := repos.Application.Count()

	applicationsByStatus := fiber.Map{}
	for _, status := range []string{
		models.ApplicationStatusPending,
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusCancelled,
	} {
		count, err := repos.Application.CountByStatus(status)
		if err != nil {
			log.Warnf("application status count failed for %s: %v", status, err)
		}
		applicationsByStatus[status] = count
	}

	paymentsByStatus := fiber.Map{}
	for _, status := range []string{
		models.PaymentStatusCreated,
		models.PaymentStatusAttempted,
		models.PaymentStatusPaid,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
	} {
		count, err := repos.Payment.CountByStatus(status)
		if err != nil {
			log.Warnf("payment status count failed for %s: %v", status, err)
		}
		paymentsByStatus[status] = count
	}
	collected, err := repos.Payment.SumPaidAmount()
	if err != nil {
		log.Warnf("paid sum failed: %v", err)
	}

	deliveriesByStatus := fiber.Map{}
	for _, status := range []string{
		models.DeliveryStatusInitiated,
		models.DeliveryStatusShipped,
		models.DeliveryStatusDelivered,
	} {
		count, err := repos.Delivery.CountByStatus(status)
		if err != nil {
			log.Warnf("delivery status count failed for %s: %v", status, err)
		}
		deliveriesByStatus[status] = count
	}

	queue := jobqueue.GetManager().GetQueue()
	pendingJobs, _ := queue.GetQueueSize(c.Context())
	processingJobs, _ := queue.GetProcessingSize(c.Context())

	return respondOK(c, fiber.Map{
		"users":                  userCount,
		"applications":           applicationCount,
		"applications_by_status": applicationsByStatus,
		"payments_by_status":     paymentsByStatus,
		"collected_paise":        collected,
		"payments_daily":         lastSevenDaysPaymentStats(repos),
		"deliveries_by_status":   deliveriesByStatus,
		"jobs": fiber.Map{
			"pending":    pendingJobs,
			"processing": processingJobs,
		},
	})
}

// lastSevenDaysPaymentStats returns one entry per day for the trailing week,
// zero-filled so the dashboard chart always has seven points.
func lastSevenDaysPaymentStats(repos *repository.Repositories) []models.DailyPaymentStats {
	const days = 7
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	byDate := make(map[string]models.DailyPaymentStats)
	stats, err := repos.Payment.GetDailyPaidStats(startDate, endDate)
	if err != nil {
		log.Warnf("daily payment stats failed: %v", err)
	} else {
		for _, s := range stats {
			byDate[s.Date] = s
		}
	}

	result := make([]models.DailyPaymentStats, days)
	for i := 0; i < days; i++ {
		date := startDate.AddDate(0, 0, i).Format("2006-01-02")
		if s, ok := byDate[date]; ok {
			result[i] = s
		} else {
			result[i] = models.DailyPaymentStats{Date: date}
		}
	}
	return result
}

// HandleAdminListApplications lists applications with an optional status filter.
func HandleAdminListApplications(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	status := strings.TrimSpace(c.Query("status"))

	repo := repository.GetGlobalFactory().GetApplicationRepository()
	apps, err := repo.List(status, offset, limit)
	if err != nil {
		log.Errorf("admin application list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load applications")
	}

	var total int64
	if status != "" {
		total, err = repo.CountByStatus(status)
	} else {
		total, err = repo.Count()
	}
	if err != nil {
		log.Warnf("admin application count failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"applications": apps,
		"total":        total,
	})
}

// HandleAdminGetApplication returns the full review view of one application,
// including short-lived access tokens for each KYC document.
func HandleAdminGetApplication(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repos := repository.GetGlobalRepositories()
	app, err := repos.Application.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Application not found")
		}
		log.Errorf("admin application lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load application")
	}

	applicant, err := repos.User.GetByID(app.UserID)
	if err != nil {
		log.Warnf("applicant lookup failed for application %d: %v", app.ID, err)
	}

	docs, err := repos.Document.GetByApplicationID(app.ID)
	if err != nil {
		log.Warnf("admin document list failed: %v", err)
	}

	secret := docTokenSecret()
	docViews := make([]fiber.Map, 0, len(docs))
	for i := range docs {
		view := fiber.Map{
			"uuid":        docs[i].UUID,
			"type":        docs[i].Type,
			"file_name":   docs[i].FileName,
			"mime_type":   docs[i].MimeType,
			"size_bytes":  docs[i].SizeBytes,
			"captured_at": docs[i].CapturedAt,
			"has_preview": docs[i].HasPreview(),
			"created_at":  docs[i].CreatedAt,
		}
		if secret != "" {
			token, err := security.GenerateDocToken(docs[i].UUID, userCtx.UserID, docTokenTTL, secret)
			if err != nil {
				log.Warnf("doc token generation failed for %s: %v", docs[i].UUID, err)
			} else {
				view["access_token"] = token
			}
		}
		docViews = append(docViews, view)
	}

	payments, err := repos.Payment.GetByApplicationID(app.ID)
	if err != nil {
		log.Warnf("admin payment list failed: %v", err)
	}

	result := fiber.Map{
		"application": app,
		"documents":   docViews,
		"payments":    payments,
	}
	if applicant != nil {
		result["applicant"] = fiber.Map{
			"id":    applicant.ID,
			"name":  applicant.Name,
			"email": applicant.Email,
			"phone": applicant.Phone,
		}
	}
	if delivery, err := repos.Delivery.GetByApplicationID(app.ID); err == nil {
		result["delivery"] = delivery
	}

	return respondOK(c, result)
}

type reviewRequest struct {
	Action string `json:"action"` // under_review | approve | reject
	Remark string `json:"remark"`
}

// HandleAdminReviewApplication transitions an application through review.
func HandleAdminReviewApplication(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	repos := repository.GetGlobalRepositories()
	app, err := repos.Application.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Application not found")
		}
		log.Errorf("admin application lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load application")
	}

	var target string
	switch strings.TrimSpace(req.Action) {
	case "under_review":
		if app.Status != models.ApplicationStatusPending {
			return respondErr(c, fiber.StatusConflict, "Only pending applications can be picked up for review")
		}
		target = models.ApplicationStatusUnderReview
	case "approve":
		if !app.IsOpen() {
			return respondErr(c, fiber.StatusConflict, "Only open applications can be approved")
		}
		target = models.ApplicationStatusApproved
	case "reject":
		if !app.IsOpen() {
			return respondErr(c, fiber.StatusConflict, "Only open applications can be rejected")
		}
		if strings.TrimSpace(req.Remark) == "" {
			return respondErr(c, fiber.StatusBadRequest, "A remark is required when rejecting")
		}
		target = models.ApplicationStatusRejected
	default:
		return respondErr(c, fiber.StatusBadRequest, "Action must be under_review, approve or reject")
	}

	reviewerID := userCtx.UserID
	if err := repos.Application.UpdateStatus(app.ID, target, &reviewerID, strings.TrimSpace(req.Remark)); err != nil {
		log.Errorf("application review update failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to update application")
	}
	app.Status = target

	notifyApplicationStatus(app, target, strings.TrimSpace(req.Remark))

	return respondOK(c, app)
}

// notifyApplicationStatus records an in-app notification and queues a mail
// for review outcomes the applicant should hear about.
func notifyApplicationStatus(app *models.VehicleApplication, status, remark string) {
	var content string
	switch status {
	case models.ApplicationStatusApproved:
		content = fmt.Sprintf("Your FASTag application for %s is approved. You can now pay the issuance fee.", app.VehicleNumber)
	case models.ApplicationStatusRejected:
		content = fmt.Sprintf("Your FASTag application for %s was rejected: %s", app.VehicleNumber, remark)
	default:
		return
	}

	repos := repository.GetGlobalRepositories()
	notification := &models.Notification{
		UserID:      app.UserID,
		Type:        "application",
		Content:     content,
		ReferenceID: app.ID,
	}
	if err := repos.Notification.Create(notification); err != nil {
		log.Errorf("review notification create failed: %v", err)
	}

	applicant, err := repos.User.GetByID(app.UserID)
	if err != nil || applicant.Email == "" {
		return
	}
	payload := jobqueue.EmailNotificationJobPayload{
		UserID:  applicant.ID,
		To:      applicant.Email,
		Subject: "FASTag application update",
		Body:    fmt.Sprintf("<p>Hello %s,</p><p>%s</p>", applicant.Name, content),
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeEmailNotification, payload.ToMap()); err != nil {
		log.Errorf("failed to enqueue review mail: %v", err)
	}
}

// HandleAdminListPayments lists payments with an optional status filter.
func HandleAdminListPayments(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	status := strings.TrimSpace(c.Query("status"))

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	payments, err := repo.List(status, offset, limit)
	if err != nil {
		log.Errorf("admin payment list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load payments")
	}

	var total int64
	if status != "" {
		total, err = repo.CountByStatus(status)
	} else {
		total, err = repo.Count()
	}
	if err != nil {
		log.Warnf("admin payment count failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"payments": payments,
		"total":    total,
	})
}

// HandleAdminListWebhookEvents lists the stored provider webhook audit trail.
func HandleAdminListWebhookEvents(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	events, err := repo.ListWebhookEvents(offset, limit)
	if err != nil {
		log.Errorf("webhook event list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load webhook events")
	}
	total, err := repo.CountWebhookEvents()
	if err != nil {
		log.Warnf("webhook event count failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"events": events,
		"total":  total,
	})
}

// HandleAdminListDeliveries lists shipments with an optional status filter.
func HandleAdminListDeliveries(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	status := strings.TrimSpace(c.Query("status"))

	repo := repository.GetGlobalFactory().GetDeliveryRepository()
	deliveries, err := repo.List(status, offset, limit)
	if err != nil {
		log.Errorf("admin delivery list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load deliveries")
	}

	return respondOK(c, fiber.Map{"deliveries": deliveries})
}

type deliveryUpdateRequest struct {
	Status         string `json:"status"` // shipped | delivered
	Courier        string `json:"courier"`
	TrackingNumber string `json:"tracking_number"`
}

// HandleAdminUpdateDelivery moves a shipment forward and notifies the owner.
func HandleAdminUpdateDelivery(c *fiber.Ctx) error {
	var req deliveryUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	repos := repository.GetGlobalRepositories()
	delivery, err := repos.Delivery.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Delivery not found")
		}
		log.Errorf("admin delivery lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load delivery")
	}

	now := time.Now()
	var content string
	switch strings.TrimSpace(req.Status) {
	case models.DeliveryStatusShipped:
		if delivery.Status != models.DeliveryStatusInitiated {
			return respondErr(c, fiber.StatusConflict, "Only initiated deliveries can be shipped")
		}
		if strings.TrimSpace(req.Courier) == "" || strings.TrimSpace(req.TrackingNumber) == "" {
			return respondErr(c, fiber.StatusBadRequest, "Courier and tracking number are required for shipping")
		}
		delivery.Status = models.DeliveryStatusShipped
		delivery.Courier = strings.TrimSpace(req.Courier)
		delivery.TrackingNumber = strings.TrimSpace(req.TrackingNumber)
		delivery.ShippedAt = &now
		content = fmt.Sprintf("Your FASTag has shipped via %s (tracking %s).", delivery.Courier, delivery.TrackingNumber)
	case models.DeliveryStatusDelivered:
		if delivery.Status != models.DeliveryStatusShipped {
			return respondErr(c, fiber.StatusConflict, "Only shipped deliveries can be marked delivered")
		}
		delivery.Status = models.DeliveryStatusDelivered
		delivery.DeliveredAt = &now
		content = "Your FASTag was delivered. Happy driving!"
	default:
		return respondErr(c, fiber.StatusBadRequest, "Status must be shipped or delivered")
	}

	if err := repos.Delivery.Update(delivery); err != nil {
		log.Errorf("delivery update failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to update delivery")
	}

	notification := &models.Notification{
		UserID:      delivery.UserID,
		Type:        "delivery",
		Content:     content,
		ReferenceID: delivery.ID,
	}
	if err := repos.Notification.Create(notification); err != nil {
		log.Errorf("delivery notification create failed: %v", err)
	}

	return respondOK(c, delivery)
}

// HandleAdminListUsers lists or searches portal accounts.
func HandleAdminListUsers(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	if query := strings.TrimSpace(c.Query("q")); query != "" {
		users, err := repo.Search(query)
		if err != nil {
			log.Errorf("user search failed: %v", err)
			return respondErr(c, fiber.StatusInternalServerError, "Failed to search users")
		}
		return respondOK(c, fiber.Map{"users": users})
	}

	offset, limit := parsePagination(c)
	users, err := repo.List(offset, limit)
	if err != nil {
		log.Errorf("user list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load users")
	}
	total, err := repo.Count()
	if err != nil {
		log.Warnf("user count failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"users": users,
		"total": total,
	})
}

// HandleAdminGetDocumentFile serves a KYC document to a reviewer holding a
// valid access token. Tokens come from the application review endpoint and
// expire after a few minutes, so the route itself needs no session.
func HandleAdminGetDocumentFile(c *fiber.Ctx) error {
	secret := docTokenSecret()
	if secret == "" {
		return respondErr(c, fiber.StatusInternalServerError, "Document access is not configured")
	}

	claims, err := security.VerifyDocToken(strings.TrimSpace(c.Query("token")), secret)
	if err != nil {
		return respondErr(c, fiber.StatusForbidden, "Invalid or expired document token")
	}

	doc, err := repository.GetGlobalFactory().GetDocumentRepository().GetByUUID(claims.DocumentUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Document not found")
		}
		log.Errorf("document lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load document")
	}

	return serveDocumentObject(c, doc, c.Query("variant") == "preview")
}

// HandleAdminQueueKeys exposes Redis queue internals for operations debugging.
// Job payload keys carry their remaining TTL so an operator can spot jobs
// about to expire unprocessed.
func HandleAdminQueueKeys(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetQueueRepository()

	keys, err := repo.FindJobKeys()
	if err != nil {
		log.Errorf("queue key scan failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to scan queue keys")
	}

	keyViews := make([]fiber.Map, 0, len(keys))
	for _, key := range keys {
		view := fiber.Map{"key": key}
		if strings.HasPrefix(key, jobqueue.JobKeyPrefix) {
			if ttl, err := repo.GetTTL(key); err == nil {
				view["ttl_seconds"] = int64(ttl.Seconds())
			}
		}
		keyViews = append(keyViews, view)
	}

	pending, err := repo.GetListLength(jobqueue.JobQueueKey)
	if err != nil {
		log.Warnf("queue length failed: %v", err)
	}
	processing, err := repo.GetListLength(jobqueue.JobProcessingKey)
	if err != nil {
		log.Warnf("processing length failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"keys":       keyViews,
		"pending":    pending,
		"processing": processing,
	})
}
