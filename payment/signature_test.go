package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSignature(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"reference":"ref-1","status":"successful"}`)

	assert.True(t, ValidSignature(secret, body, Sign(secret, body)))
}

func TestValidSignature_Rejections(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"reference":"ref-1","status":"successful"}`)

	assert.False(t, ValidSignature(secret, body, ""), "missing signature")
	assert.False(t, ValidSignature(secret, body, "deadbeef"), "wrong signature")
	assert.False(t, ValidSignature(secret, body, Sign("other-secret", body)), "wrong secret")

	tampered := []byte(`{"reference":"ref-1","status":"failed"}`)
	assert.False(t, ValidSignature(secret, tampered, Sign(secret, body)), "tampered body")
}
