package constants

// Static route constants
const (
	APIRoute   = "/api"
	APIv1Route = "/v1"

	// Webhook path is registered outside the rate-limited API group so that
	// provider retries are never throttled away.
	PaymentWebhookRoute = "/api/v1/payments/webhook"
)
