package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocTokenRoundTrip(t *testing.T) {
	token, err := GenerateDocToken("doc-uuid-1", 42, time.Minute, "secret")
	assert.NoError(t, err)

	claims, err := VerifyDocToken(token, "secret")
	assert.NoError(t, err)
	assert.Equal(t, "doc-uuid-1", claims.DocumentUUID)
	assert.Equal(t, uint(42), claims.ReviewerID)
}

func TestDocTokenRejectsTampering(t *testing.T) {
	token, err := GenerateDocToken("doc-uuid-1", 42, time.Minute, "secret")
	assert.NoError(t, err)

	_, err = VerifyDocToken(token, "other-secret")
	assert.Error(t, err)

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	_, err = VerifyDocToken(tampered, "secret")
	assert.Error(t, err)
}

func TestDocTokenExpiry(t *testing.T) {
	token, err := GenerateDocToken("doc-uuid-1", 42, -time.Second, "secret")
	assert.NoError(t, err)

	_, err = VerifyDocToken(token, "secret")
	assert.ErrorContains(t, err, "expired")
}

func TestDocTokenRequiresSecret(t *testing.T) {
	_, err := GenerateDocToken("doc-uuid-1", 42, time.Minute, "")
	assert.Error(t, err)

	_, err = VerifyDocToken("a.b", "")
	assert.Error(t, err)
}
