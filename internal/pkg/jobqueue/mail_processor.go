package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/tollsetu/fastag-portal/internal/pkg/mail"
)

// processEmailNotificationJob sends one notification mail via SMTP
func (q *Queue) processEmailNotificationJob(job *Job) error {
	payload, err := EmailNotificationJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid email notification payload: %w", err)
	}

	if payload.To == "" {
		return fmt.Errorf("email notification job %s has no recipient", job.ID)
	}

	if err := mail.SendMail(payload.To, payload.Subject, payload.Body); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", payload.To, err)
	}

	log.Infof("[JobQueue] Sent notification mail to user %d (%s)", payload.UserID, payload.Subject)
	return nil
}
