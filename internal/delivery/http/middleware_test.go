package httpd

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestSignatureMiddlewarePassesBodyThrough(t *testing.T) {
	t.Parallel()

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.WriteHeader(http.StatusNoContent)
	})
	h := SignatureMiddleware(SigConfig{Secret: "s", MaxAgeSeconds: 60})(next)

	body := `{"order_id":"EBOOK-1"}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-Signature", Sign("s", []byte(body), ts))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got != body {
		t.Errorf("body not restored: %q", got)
	}
}

func TestSignatureMiddlewareDisabledWithoutSecret(t *testing.T) {
	t.Parallel()

	h := SignatureMiddleware(SigConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("{}")))
	if w.Code != http.StatusAccepted {
		t.Errorf("expected pass-through, got %d", w.Code)
	}
}

func TestSignatureMiddlewareBadTimestamp(t *testing.T) {
	t.Parallel()

	h := SignatureMiddleware(SigConfig{Secret: "s"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("{}"))
	req.Header.Set("X-Timestamp", "yesterday")
	req.Header.Set("X-Signature", "abc")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	t.Parallel()

	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", w.Code)
	}
}
