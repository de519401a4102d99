package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/tollsetu/fastag-portal/app/models"
	"github.com/tollsetu/fastag-portal/app/repository"
	"github.com/tollsetu/fastag-portal/internal/pkg/usercontext"
)

// HandleGetMe returns the authenticated user's profile and counts.
func HandleGetMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusNotFound, "User not found")
		}
		log.Errorf("profile load failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to load profile")
	}

	applicationCount, err := repos.Application.CountByUserID(user.ID)
	if err != nil {
		log.Warnf("application count failed for user %d: %v", user.ID, err)
	}
	unread, err := repos.Notification.CountUnread(user.ID)
	if err != nil {
		log.Warnf("unread count failed for user %d: %v", user.ID, err)
	}

	return respondOK(c, fiber.Map{
		"id":                   user.ID,
		"name":                 user.Name,
		"email":                user.Email,
		"phone":                user.Phone,
		"is_admin":             user.Role == models.ROLE_ADMIN,
		"application_count":    applicationCount,
		"unread_notifications": unread,
		"created_at":           user.CreatedAt,
	})
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// HandleUpdateMe updates mutable profile fields of the authenticated user.
func HandleUpdateMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return respondErr(c, fiber.StatusNotFound, "User not found")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = phone
	}
	if err := user.Validate(); err != nil {
		return respondErr(c, fiber.StatusBadRequest, err.Error())
	}

	if err := repo.Update(user); err != nil {
		log.Errorf("profile update failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Failed to update profile")
	}

	return respondOK(c, fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"phone": user.Phone,
	})
}
