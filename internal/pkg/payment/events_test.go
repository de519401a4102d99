package payment

import (
	"testing"
	"time"
)

func TestParseWebhookEvent_LinkEvent(t *testing.T) {
	raw := []byte(`{
		"event": "payment_link.paid",
		"payload": {
			"payment_link": {
				"entity": {
					"id": "plink_123",
					"status": "paid",
					"amount": 40000,
					"amount_paid": 40000,
					"created_at": 1714550000,
					"updated_at": 1714550123
				}
			},
			"payment": {
				"entity": {
					"id": "pay_456",
					"status": "captured",
					"payment_link_id": "plink_123",
					"created_at": 1714550100
				}
			}
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.Event != EventLinkPaid {
		t.Fatalf("unexpected event type %q", ev.Event)
	}
	if ev.OrderID() != "plink_123" {
		t.Fatalf("expected link entity id to win, got %q", ev.OrderID())
	}
	// Link status takes priority over the nested payment status.
	if ev.StatusToken() != "paid" {
		t.Fatalf("expected status token paid, got %q", ev.StatusToken())
	}
	// Payment entity creation time is preferred for completion.
	want := time.Unix(1714550100, 0).UTC()
	got := ev.CompletionTime()
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected completion time %v, got %v", want, got)
	}
}

func TestParseWebhookEvent_PaymentEventBackReference(t *testing.T) {
	raw := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_789",
					"status": "captured",
					"payment_link_id": "plink_999",
					"created_at": 1714551000
				}
			}
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.LinkEntity() != nil {
		t.Fatalf("expected no link entity on payment-level event")
	}
	if ev.OrderID() != "plink_999" {
		t.Fatalf("expected order id from payment back-reference, got %q", ev.OrderID())
	}
	if ev.StatusToken() != "captured" {
		t.Fatalf("expected payment status token, got %q", ev.StatusToken())
	}
}

func TestParseWebhookEvent_MissingIdentifiers(t *testing.T) {
	raw := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"status":"failed"}}}}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.OrderID() != "" {
		t.Fatalf("expected empty order id, got %q", ev.OrderID())
	}
}

func TestParseWebhookEvent_RawStatusFallback(t *testing.T) {
	// Entity carried under a key the typed structs do not model.
	raw := []byte(`{
		"event": "payment_link.cancelled",
		"payload": {
			"payment_link": { "entity": { "id": "plink_1" } },
			"order": { "entity": { "status": "Cancelled" } }
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev.StatusToken() != "cancelled" {
		t.Fatalf("expected lowercased fallback status, got %q", ev.StatusToken())
	}
}

func TestCompletionTime_LinkFallbacks(t *testing.T) {
	raw := []byte(`{
		"event": "payment_link.paid",
		"payload": {
			"payment_link": { "entity": { "id": "plink_2", "status": "paid", "created_at": 1700000000 } }
		}
	}`)

	ev, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	want := time.Unix(1700000000, 0).UTC()
	got := ev.CompletionTime()
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected link created_at fallback %v, got %v", want, got)
	}

	empty := []byte(`{"event":"payment_link.paid","payload":{"payment_link":{"entity":{"id":"plink_3","status":"paid"}}}}`)
	ev2, err := ParseWebhookEvent(empty)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if ev2.CompletionTime() != nil {
		t.Fatalf("expected nil completion time when no epoch fields present")
	}
}

func TestParseWebhookEvent_Malformed(t *testing.T) {
	if _, err := ParseWebhookEvent([]byte(`{"event":`)); err == nil {
		t.Fatalf("expected parse error for truncated body")
	}
}
