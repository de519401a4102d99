package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/tollsetu/fastag-portal/internal/pkg/env"
)

// SignPayload computes the lowercase-hex HMAC-SHA256 of payload under secret.
// This is the signature scheme Razorpay applies to webhook bodies.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header value against
// the HMAC of the exact raw body bytes. The body must never be re-serialized
// before this check; any JSON re-encoding invalidates every signature.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// WebhookSecret returns the configured webhook shared secret, falling back to
// the general API key secret when no dedicated webhook secret is set. Empty
// means verification must fail closed.
func WebhookSecret() string {
	if s := strings.TrimSpace(env.GetEnv("RAZORPAY_WEBHOOK_SECRET", "")); s != "" {
		return s
	}
	return strings.TrimSpace(env.GetEnv("RAZORPAY_KEY_SECRET", ""))
}
