package payment

import (
	"encoding/json"
	"strings"
	"time"
)

// Provider webhook event types this system acts on. The provider vocabulary
// is a superset; anything else is reported as unhandled, never dropped.
const (
	EventLinkPaid          = "payment_link.paid"
	EventLinkPartiallyPaid = "payment_link.partially_paid"
	EventLinkCancelled     = "payment_link.cancelled"
	EventLinkExpired       = "payment_link.expired"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentFailed     = "payment.failed"
)

// LinkEntity is the payment_link entity carried by link-level events.
type LinkEntity struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	AmountPaid  int64  `json:"amount_paid"`
	ReferenceID string `json:"reference_id"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// PaymentEntity is the payment entity carried by payment-level events and,
// optionally, nested inside link-level events. PaymentLinkID is the back
// reference used to recover the order id when no link entity is present.
type PaymentEntity struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	PaymentLinkID string `json:"payment_link_id"`
	ErrorCode     string `json:"error_code"`
	CreatedAt     int64  `json:"created_at"`
}

// WebhookEvent is the decoded shape of one verified webhook delivery.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink *struct {
			Entity *LinkEntity `json:"entity"`
		} `json:"payment_link"`
		Payment *struct {
			Entity *PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`

	// raw keeps the undecoded payload for the status fallback probe.
	raw map[string]json.RawMessage
}

// ParseWebhookEvent decodes an already-verified webhook body. Decoding is
// strictly post-verification; the raw bytes are what the signature covers.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	// Best effort; the typed fields above are authoritative.
	_ = json.Unmarshal(body, &ev.raw)
	return &ev, nil
}

// IsLinkEvent reports whether eventType belongs to the link-level family.
func IsLinkEvent(eventType string) bool {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case EventLinkPaid, EventLinkPartiallyPaid, EventLinkCancelled, EventLinkExpired:
		return true
	default:
		return false
	}
}

// IsPaymentEvent reports whether eventType belongs to the payment-level family.
func IsPaymentEvent(eventType string) bool {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case EventPaymentCaptured, EventPaymentFailed:
		return true
	default:
		return false
	}
}

// IsHandledEvent reports whether this system maps the event type at all.
func IsHandledEvent(eventType string) bool {
	return IsLinkEvent(eventType) || IsPaymentEvent(eventType)
}

// LinkEntity returns the embedded payment_link entity, or nil.
func (e *WebhookEvent) LinkEntity() *LinkEntity {
	if e.Payload.PaymentLink == nil {
		return nil
	}
	return e.Payload.PaymentLink.Entity
}

// PaymentEntity returns the embedded payment entity, or nil.
func (e *WebhookEvent) PaymentEntity() *PaymentEntity {
	if e.Payload.Payment == nil {
		return nil
	}
	return e.Payload.Payment.Entity
}

// OrderID resolves the reconciliation key: the link entity id when present,
// else the payment entity's link back-reference. Empty means the event
// cannot be correlated.
func (e *WebhookEvent) OrderID() string {
	if link := e.LinkEntity(); link != nil && strings.TrimSpace(link.ID) != "" {
		return strings.TrimSpace(link.ID)
	}
	if p := e.PaymentEntity(); p != nil && strings.TrimSpace(p.PaymentLinkID) != "" {
		return strings.TrimSpace(p.PaymentLinkID)
	}
	return ""
}

// StatusToken selects the provider status string in priority order: link
// entity status, payment entity status, then a probe into the raw payload.
// The result is lowercased for table lookup; empty maps to the default.
func (e *WebhookEvent) StatusToken() string {
	if link := e.LinkEntity(); link != nil && strings.TrimSpace(link.Status) != "" {
		return strings.ToLower(strings.TrimSpace(link.Status))
	}
	if p := e.PaymentEntity(); p != nil && strings.TrimSpace(p.Status) != "" {
		return strings.ToLower(strings.TrimSpace(p.Status))
	}
	return strings.ToLower(e.rawStatusProbe())
}

// rawStatusProbe digs payload.*.entity.status out of the undecoded payload.
// Some provider payload variants carry the entity under keys the typed
// structs do not model (e.g. "order").
func (e *WebhookEvent) rawStatusProbe() string {
	payloadRaw, ok := e.raw["payload"]
	if !ok {
		return ""
	}
	var payload map[string]struct {
		Entity struct {
			Status string `json:"status"`
		} `json:"entity"`
	}
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return ""
	}
	for _, wrapper := range payload {
		if s := strings.TrimSpace(wrapper.Entity.Status); s != "" {
			return s
		}
	}
	return ""
}

// CompletionTime derives the payment completion timestamp from epoch-second
// fields: payment entity creation time preferred, else the link entity's
// update time, else its creation time. Nil when nothing is resolvable.
func (e *WebhookEvent) CompletionTime() *time.Time {
	var epoch int64
	if p := e.PaymentEntity(); p != nil && p.CreatedAt > 0 {
		epoch = p.CreatedAt
	} else if link := e.LinkEntity(); link != nil {
		if link.UpdatedAt > 0 {
			epoch = link.UpdatedAt
		} else if link.CreatedAt > 0 {
			epoch = link.CreatedAt
		}
	}
	if epoch == 0 {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}
