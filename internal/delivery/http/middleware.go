package httpd

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type SigConfig struct {
	Secret        string
	MaxAgeSeconds int64
}

// Sign returns the hex HMAC-SHA256 of body + "." + ts.
func Sign(secret string, body []byte, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte("." + ts))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureMiddleware authenticates webhook calls with X-Timestamp and
// X-Signature headers. An empty secret disables the check.
func SignatureMiddleware(cfg SigConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			if cfg.Secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			ts := r.Header.Get("X-Timestamp")
			sig := r.Header.Get("X-Signature")

			if ts == "" || sig == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing signature headers"})
				return
			}

			tsInt, err := strconv.ParseInt(ts, 10, 64)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid timestamp"})
				return
			}

			age := time.Now().Unix() - tsInt
			if cfg.MaxAgeSeconds > 0 && (age > cfg.MaxAgeSeconds || age < -cfg.MaxAgeSeconds) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "signature expired"})
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body error"})
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			expected := Sign(cfg.Secret, bodyBytes, ts)
			if !hmac.Equal([]byte(expected), []byte(sig)) {
				log.Warn().Str("path", r.URL.Path).Msg("webhook signature mismatch")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	}
	return http.HandlerFunc(fn)
}
