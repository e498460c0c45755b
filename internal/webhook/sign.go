package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// sign computes the hex-encoded HMAC-SHA256 of payload under secret. Go's
// standard crypto/hmac and crypto/sha256 are used directly: no third-party
// HMAC implementation appears anywhere in the reference corpus, and the
// standard library's is the constant-time, audited one anyway.
func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureHeader formats the value this service sends as
// X-Webhook-Signature: sha256=<hex>.
func signatureHeader(secret string, payload []byte) string {
	return "sha256=" + sign(secret, payload)
}
