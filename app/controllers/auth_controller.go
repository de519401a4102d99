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
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new inactive account and mails the activation link.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email))); err == nil {
		return respondErr(c, fiber.StatusConflict, "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("register email lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Registration failed")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Phone), req.Password)
	if err != nil {
		return respondErr(c, fiber.StatusBadRequest, err.Error())
	}
	if err := user.GenerateActivationToken(); err != nil {
		log.Errorf("activation token generation failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Registration failed")
	}

	if err := repo.Create(user); err != nil {
		log.Errorf("user create failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Registration failed")
	}

	sendActivationMail(user)

	return respondCreated(c, fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// HandleActivate flips an account to active when the mailed token matches.
func HandleActivate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return respondErr(c, fiber.StatusBadRequest, "Activation token is required")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusBadRequest, "Invalid activation token")
		}
		log.Errorf("activation lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Activation failed")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		log.Errorf("activation update failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Activation failed")
	}

	return respondOK(c, fiber.Map{"activated": true})
}

// HandleLogin verifies credentials and issues a bearer token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondErr(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		log.Errorf("login lookup failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Login failed")
	}

	if !user.CheckPassword(req.Password) {
		return respondErr(c, fiber.StatusUnauthorized, "Invalid email or password")
	}
	if user.Status == models.STATUS_INACTIVE {
		return respondErr(c, fiber.StatusForbidden, "Account is not activated yet")
	}
	if user.Status == models.STATUS_DISABLED {
		return respondErr(c, fiber.StatusForbidden, "Account is disabled")
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		log.Errorf("token generation failed: %v", err)
		return respondErr(c, fiber.StatusInternalServerError, "Login failed")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("failed to record last login for user %d: %v", user.ID, err)
	}

	return respondOK(c, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"is_admin": user.Role == models.ROLE_ADMIN,
		},
	})
}

func sendActivationMail(user *models.User) {
	baseURL := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"), "/")
	link := fmt.Sprintf("%s/api/v1/auth/activate?token=%s", baseURL, user.ActivationToken)

	payload := jobqueue.EmailNotificationJobPayload{
		UserID:  user.ID,
		To:      user.Email,
		Subject: "Activate your FASTag portal account",
		Body: fmt.Sprintf("<p>Hello %s,</p><p>Please activate your account by clicking <a href=\"%s\">this link</a>.</p>",
			user.Name, link),
	}
	if _, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeEmailNotification, payload.ToMap()); err != nil {
		log.Errorf("failed to enqueue activation mail for user %d: %v", user.ID, err)
	}
}
