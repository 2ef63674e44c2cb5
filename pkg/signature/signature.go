// Package signature authenticates payloads produced by the payment gateway.
//
// Both checks are HMAC-SHA256 with a shared secret, hex encoded. Webhooks are
// signed over the exact raw request body; the client checkout proof is signed
// over "<gatewayOrderRef>|<gatewayTransactionRef>".
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the hex-encoded HMAC-SHA256 of payload under secret
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided is the HMAC-SHA256 of rawBody under secret.
// rawBody must be the bytes as received, never a re-encoded copy.
// Any malformed input yields false.
func Verify(rawBody []byte, provided, secret string) bool {
	if secret == "" || provided == "" {
		return false
	}

	got, err := hex.DecodeString(strings.TrimSpace(provided))
	if err != nil || len(got) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)

	return hmac.Equal(got, mac.Sum(nil))
}

// ProofPayload builds the message the checkout SDK signs for a completed payment
func ProofPayload(gatewayOrderRef, gatewayTransactionRef string) []byte {
	return []byte(gatewayOrderRef + "|" + gatewayTransactionRef)
}

// VerifyPaymentProof checks the proof returned to the purchaser's client after checkout
func VerifyPaymentProof(gatewayOrderRef, gatewayTransactionRef, proof, secret string) bool {
	if gatewayOrderRef == "" || gatewayTransactionRef == "" {
		return false
	}
	return Verify(ProofPayload(gatewayOrderRef, gatewayTransactionRef), proof, secret)
}
