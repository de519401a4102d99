package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

type createApplicationRequest struct {
	VehicleNumber   string `json:"vehicle_number"`
	VehicleClass    string `json:"vehicle_class"`
	VehicleMake     string `json:"vehicle_make"`
	VehicleModel    string `json:"vehicle_model"`
	ChassisNumber   string `json:"chassis_number"`
	EngineNumber    string `json:"engine_number"`
	OwnerName       string `json:"owner_name"`
	OwnerPhone      string `json:"owner_phone"`
	DeliveryAddress string `json:"delivery_address"`
	City            string `json:"city"`
	State           string `json:"state"`
	Pincode         string `json:"pincode"`
}

// HandleCreateApplication files a new FASTag application for the caller.
func HandleCreateApplication(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	vehicleNumber := normalizeVehicleNumber(req.VehicleNumber)
	if vehicleNumber == "" {
		return respondErr(c, fiber.StatusBadRequest, "Vehicle number is required")
	}

	repo := repository.GetGlobalFactory().GetApplicationRepository()
	open, err := repo.HasOpenApplication(userCtx.UserID, vehicleNumber)
	if err != nil {
		log.Errorf("open application check failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to create application")
	}
	if open {
		return respondErr(c, fiber.StatusConflict, "An application for this vehicle is already in progress")
	}

	app := &models.VehicleApplication{
		UUID:            uuid.New().String(),
		UserID:          userCtx.UserID,
		VehicleNumber:   vehicleNumber,
		VehicleClass:    strings.ToUpper(strings.TrimSpace(req.VehicleClass)),
		VehicleMake:     strings.TrimSpace(req.VehicleMake),
		VehicleModel:    strings.TrimSpace(req.VehicleModel),
		ChassisNumber:   strings.ToUpper(strings.TrimSpace(req.ChassisNumber)),
		EngineNumber:    strings.ToUpper(strings.TrimSpace(req.EngineNumber)),
		OwnerName:       strings.TrimSpace(req.OwnerName),
		OwnerPhone:      strings.TrimSpace(req.OwnerPhone),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		City:            strings.TrimSpace(req.City),
		State:           strings.TrimSpace(req.State),
		Pincode:         strings.TrimSpace(req.Pincode),
		Status:          models.ApplicationStatusPending,
	}
	if app.VehicleClass == "" {
		app.VehicleClass = models.VehicleClassVC4
	}
	if err := app.Validate(); err != nil {
		return respondErr(c, fiber.StatusBadRequest, err.Error())
	}

	if err := repo.Create(app); err != nil {
		log.Errorf("application create failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to create application")
	}

	return respondCreated(c, app)
}

// HandleListApplications returns the caller's applications, newest first.
func HandleListApplications(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetApplicationRepository()
	apps, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		log.Errorf("application list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load applications")
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		log.Warnf("application count failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"applications": apps,
		"total":        total,
	})
}

// HandleGetApplication returns one application with its documents and payments.
func HandleGetApplication(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	app, err := loadOwnedApplication(c.Params("uuid"), userCtx)
	if err != nil {
		return applicationLookupError(c, err)
	}

	repos := repository.GetGlobalRepositories()
	docs, err := repos.Document.GetByApplicationID(app.ID)
	if err != nil {
		log.Warnf("document list failed for application %d: %v", app.ID, err)
	}
	payments, err := repos.Payment.GetByApplicationID(app.ID)
	if err != nil {
		log.Warnf("payment list failed for application %d: %v", app.ID, err)
	}

	result := fiber.Map{
		"application": app,
		"documents":   docs,
		"payments":    payments,
	}
	if delivery, err := repos.Delivery.GetByApplicationID(app.ID); err == nil {
		result["delivery"] = delivery
	}

	return respondOK(c, result)
}

// HandleCancelApplication lets the owner withdraw an unfinished application.
func HandleCancelApplication(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	app, err := loadOwnedApplication(c.Params("uuid"), userCtx)
	if err != nil {
		return applicationLookupError(c, err)
	}

	if !app.IsOpen() {
		return respondErr(c, fiber.StatusConflict, "Only pending or under-review applications can be cancelled")
	}

	repo := repository.GetGlobalFactory().GetApplicationRepository()
	if err := repo.UpdateStatus(app.ID, models.ApplicationStatusCancelled, nil, "cancelled by applicant"); err != nil {
		log.Errorf("application cancel failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to cancel application")
	}

	app.Status = models.ApplicationStatusCancelled
	return respondOK(c, app)
}

var errApplicationNotOwned = errors.New("application does not belong to caller")

// loadOwnedApplication resolves an application UUID and enforces ownership.
// Admins may load any application.
func loadOwnedApplication(uuidParam string, userCtx usercontext.UserContext) (*models.VehicleApplication, error) {
	repo := repository.GetGlobalFactory().GetApplicationRepository()
	app, err := repo.GetByUUID(strings.TrimSpace(uuidParam))
	if err != nil {
		return nil, err
	}
	if app.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, errApplicationNotOwned
	}
	return app, nil
}

func applicationLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, errApplicationNotOwned) {
		// Hide existence of other users' applications
		return respondErr(c, fiber.StatusNotFound, "Application not found")
	}
	log.Errorf("application lookup failed: %v", err)
	return respondErr(c, fiber.StatusInternalServerError, "Failed to load application")
}

func normalizeVehicleNumber(v string) string {
	return strings.ToUpper(strings.Join(strings.Fields(strings.TrimSpace(v)), ""))
}
