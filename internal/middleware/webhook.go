package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Header names checked by the webhook guards.
const (
	HeaderWebhookToken = "X-Webhook-Token"
	HeaderSignature    = "X-Signature-256"
)

// MaxBody caps the request body at limit bytes. Reads past the limit fail
// with *http.MaxBytesError, which handlers map to 413.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// SecretFunc returns the current value of a credential. It is called per
// request so rotated values apply without rebuilding the router.
type SecretFunc func() string

// Static returns a SecretFunc that always yields s.
func Static(s string) SecretFunc {
	return func() string { return s }
}

// WebhookHMAC returns middleware that validates HMAC-SHA256 webhook signatures
// carried in header as "sha256=<hex>" or bare hex. While secret yields "",
// the check is skipped.
func WebhookHMAC(secret SecretFunc, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := secret()
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			sig := r.Header.Get(header)
			if sig == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing webhook signature")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				writeJSONError(w, http.StatusBadRequest, "failed to read body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !verifyHMAC(body, sig, key) {
				writeJSONError(w, http.StatusForbidden, "invalid webhook signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// verifyHMAC checks an HMAC-SHA256 signature. Supports both raw hex and
// "sha256=<hex>" prefix formats.
func verifyHMAC(payload []byte, signature, secret string) bool {
	sig := strings.TrimPrefix(signature, "sha256=")
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	return hmac.Equal(sigBytes, expected)
}

// Sign returns the "sha256=<hex>" signature of payload, as expected by WebhookHMAC.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// WebhookToken returns middleware that requires header to equal token.
// While token yields "", the check is skipped.
func WebhookToken(token SecretFunc, header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			want := token()
			if want == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(header)
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeJSONError(w, http.StatusForbidden, "invalid webhook token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
