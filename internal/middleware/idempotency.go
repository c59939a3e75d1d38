package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/SchoolPay/internal/logger"
	"github.com/Strob0t/SchoolPay/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyBody   = 1 << 20
	maxIdempotencyKeyLen = 255
)

// storedResponse is the cache value for one Idempotency-Key.
type storedResponse struct {
	Fingerprint string      `json:"fingerprint"`
	Status      int         `json:"status"`
	Header      http.Header `json:"header"`
	Body        []byte      `json:"body"`
}

// Idempotency replays the stored response when a POST repeats an
// Idempotency-Key on the same path with the same body. Reusing a key with
// a different body is rejected with 422. 5xx responses and bodies over
// 1 MiB are never stored, so such requests run again on retry. Cache
// failures degrade to normal processing.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerIdempotencyKey)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeJSONError(w, http.StatusBadRequest, "Idempotency-Key too long")
				return
			}

			log := logger.From(r.Context()).With("idempotency_key", key)

			body, err := io.ReadAll(r.Body)
			if err != nil {
				// Let the handler report the read error (e.g. body too large).
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			sum := sha256.Sum256(body)
			fingerprint := hex.EncodeToString(sum[:])
			cacheKey := "idem:" + r.URL.Path + ":" + key

			if raw, ok, err := c.Get(r.Context(), cacheKey); err != nil {
				log.Warn("idempotency lookup failed", "error", err)
			} else if ok {
				var prev storedResponse
				switch {
				case json.Unmarshal(raw, &prev) != nil:
					log.Warn("idempotency entry unreadable, reprocessing")
				case prev.Fingerprint != fingerprint:
					writeJSONError(w, http.StatusUnprocessableEntity, "Idempotency-Key reused with a different payload")
					return
				default:
					replay(w, &prev)
					return
				}
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				return
			}
			entry := storedResponse{
				Fingerprint: fingerprint,
				Status:      rec.statusCode,
				Header:      w.Header().Clone(),
				Body:        rec.body.Bytes(),
			}
			entry.Header.Del(headerRequestID)
			payload, err := json.Marshal(entry)
			if err != nil {
				return
			}
			if err := c.Set(r.Context(), cacheKey, payload, ttl); err != nil {
				log.Warn("idempotency store failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, prev *storedResponse) {
	for k, vs := range prev.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(headerReplayed, "true")
	w.WriteHeader(prev.Status)
	_, _ = w.Write(prev.Body)
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

// responseRecorder tees the response into body while writing it through.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
