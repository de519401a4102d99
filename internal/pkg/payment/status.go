package payment

import (
	"strings"

	"github.com/tollsetu/fastag-portal/app/models"
)

// isPaidEvent reports whether the event type itself asserts a completed
// payment. Only these event types allow the "created" token override below.
func isPaidEvent(eventType string) bool {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case EventLinkPaid, EventPaymentCaptured:
		return true
	default:
		return false
	}
}

// MapProviderStatus translates a provider status token into the internal
// payment status. The mapping is total: unknown or absent tokens fall back
// to attempted rather than failing.
//
// A bare "created" token normally stays attempted, but some paid webhooks
// arrive while the link entity still reads "created"; for those the event
// type wins and the status maps to paid.
func MapProviderStatus(eventType, token string) string {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "paid", "captured":
		return models.PaymentStatusPaid
	case "created":
		if isPaidEvent(eventType) {
			return models.PaymentStatusPaid
		}
		return models.PaymentStatusAttempted
	case "failed":
		return models.PaymentStatusFailed
	case "cancelled", "expired":
		return models.PaymentStatusCancelled
	case "partially_paid":
		return models.PaymentStatusAttempted
	default:
		return models.PaymentStatusAttempted
	}
}
