package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.CircuitBreakerMax = 1
	c := NewRateLimitedHTTPClient(cfg, quietLogger())
	defer c.Close()

	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error from failing upstream")
	}
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "circuit breaker open") {
		t.Fatalf("expected the open circuit to reject the call, got %v", err)
	}
}

func TestClientRecoversAfterSuccess(t *testing.T) {
	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.CircuitBreakerMax = 3
	c := NewRateLimitedHTTPClient(cfg, quietLogger())
	defer c.Close()

	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error from failing upstream")
	}
	fail = false
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected success once upstream recovers, got %v", err)
	}
	resp.Body.Close()
}
