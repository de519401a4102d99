package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

// HandleListNotifications returns the caller's notifications, newest first.
func HandleListNotifications(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	notifications, err := repo.GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		log.Errorf("notification list failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load notifications")
	}
	unread, err := repo.CountUnread(userCtx.UserID)
	if err != nil {
		log.Warnf("unread count failed: %v", err)
	}

	return respondOK(c, fiber.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// HandleMarkNotificationRead marks one notification as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return respondErr(c, fiber.StatusBadRequest, "Invalid notification id")
	}

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if err := repo.MarkAsRead(uint(id), userCtx.UserID); err != nil {
		log.Errorf("notification mark-read failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to update notification")
	}

	return respondOK(c, fiber.Map{"read": true})
}

// HandleMarkAllNotificationsRead marks every unread notification as read.
func HandleMarkAllNotificationsRead(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetNotificationRepository()
	if err := repo.MarkAllAsRead(userCtx.UserID); err != nil {
		log.Errorf("notification mark-all-read failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to update notifications")
	}

	return respondOK(c, fiber.Map{"read": true})
}
