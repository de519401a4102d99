package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

// HandleListDeliveries returns all tag shipments belonging to the caller.
func HandleListDeliveries(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetDeliveryRepository()
	deliveries, err := repo.GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("delivery list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load deliveries")
	}

	return respondOK(c, fiber.Map{"deliveries": deliveries})
}

// HandleGetDelivery returns one shipment by UUID for its owner.
func HandleGetDelivery(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetDeliveryRepository()
	delivery, err := repo.GetByUUID(strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "Delivery not found")
		}
		log.Errorf("delivery lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load delivery")
	}
	if delivery.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return respondErr(c, fiber.StatusNotFound, "Delivery not found")
	}

	return respondOK(c, delivery)
}
