package payment

import (
	"testing"

	"github.com/tollsetu/fastag-portal/app/models"
)

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		event string
		token string
		want  string
	}{
		{event: EventLinkPaid, token: "paid", want: models.PaymentStatusPaid},
		{event: EventPaymentCaptured, token: "captured", want: models.PaymentStatusPaid},
		{event: EventPaymentFailed, token: "failed", want: models.PaymentStatusFailed},
		{event: EventLinkCancelled, token: "cancelled", want: models.PaymentStatusCancelled},
		{event: EventLinkExpired, token: "expired", want: models.PaymentStatusCancelled},
		{event: EventLinkPartiallyPaid, token: "partially_paid", want: models.PaymentStatusAttempted},
		{event: EventLinkPaid, token: "PAID", want: models.PaymentStatusPaid},
		{event: EventLinkCancelled, token: "something_new", want: models.PaymentStatusAttempted},
		{event: EventLinkCancelled, token: "", want: models.PaymentStatusAttempted},
	}

	for _, tt := range tests {
		if got := MapProviderStatus(tt.event, tt.token); got != tt.want {
			t.Fatalf("MapProviderStatus(%q, %q) = %q, want %q", tt.event, tt.token, got, tt.want)
		}
	}
}

func TestMapProviderStatus_CreatedOverride(t *testing.T) {
	// "created" maps to paid only on paid/captured event types.
	if got := MapProviderStatus(EventLinkPaid, "created"); got != models.PaymentStatusPaid {
		t.Fatalf("expected created on %s to map to paid, got %q", EventLinkPaid, got)
	}
	if got := MapProviderStatus(EventPaymentCaptured, "created"); got != models.PaymentStatusPaid {
		t.Fatalf("expected created on %s to map to paid, got %q", EventPaymentCaptured, got)
	}
	for _, event := range []string{EventLinkCancelled, EventLinkExpired, EventLinkPartiallyPaid, EventPaymentFailed, "order.paid"} {
		if got := MapProviderStatus(event, "created"); got != models.PaymentStatusAttempted {
			t.Fatalf("expected created on %s to stay attempted, got %q", event, got)
		}
	}
}

func TestEventFamilies(t *testing.T) {
	for _, event := range []string{EventLinkPaid, EventLinkCancelled, EventLinkPartiallyPaid, EventLinkExpired} {
		if !IsLinkEvent(event) || IsPaymentEvent(event) {
			t.Fatalf("expected %s to classify as link-level", event)
		}
	}
	for _, event := range []string{EventPaymentCaptured, EventPaymentFailed} {
		if !IsPaymentEvent(event) || IsLinkEvent(event) {
			t.Fatalf("expected %s to classify as payment-level", event)
		}
	}
	if IsHandledEvent("refund.processed") {
		t.Fatalf("expected unknown event type to be unhandled")
	}
}
