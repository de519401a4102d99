package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(`{"event":"payment_link.paid"}`)
	secret := "top-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	validSig := hex.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if SignPayload(payload, secret) != validSig {
		t.Fatalf("SignPayload disagrees with reference HMAC")
	}
	if VerifyWebhookSignature(payload, "deadbeef", secret) {
		t.Fatalf("expected invalid signature to fail")
	}
	if VerifyWebhookSignature(payload, validSig, "other-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
}

func TestVerifyWebhookSignature_BodyMutation(t *testing.T) {
	payload := []byte(`{"event":"payment_link.paid","payload":{}}`)
	secret := "s3cr3t"
	sig := SignPayload(payload, secret)

	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		if VerifyWebhookSignature(mutated, sig, secret) {
			t.Fatalf("expected mutation at byte %d to invalidate signature", i)
		}
	}
}

func TestVerifyWebhookSignature_MissingInputs(t *testing.T) {
	payload := []byte(`{}`)
	sig := SignPayload(payload, "secret")

	if VerifyWebhookSignature(payload, "", "secret") {
		t.Fatalf("expected missing signature to fail")
	}
	// No secret, no access: an empty secret must never verify anything.
	if VerifyWebhookSignature(payload, sig, "") {
		t.Fatalf("expected missing secret to fail")
	}
	if VerifyWebhookSignature(payload, "not-hex!", "secret") {
		t.Fatalf("expected non-hex signature to fail")
	}
}

func TestVerifyWebhookSignature_CaseInsensitiveHex(t *testing.T) {
	payload := []byte(`{"a":1}`)
	secret := "secret"
	sig := SignPayload(payload, secret)

	upper := ""
	for _, r := range sig {
		if r >= 'a' && r <= 'f' {
			upper += string(r - 32)
		} else {
			upper += string(r)
		}
	}
	if !VerifyWebhookSignature(payload, upper, secret) {
		t.Fatalf("expected uppercase hex signature to validate")
	}
}
