package apiclient

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/softseven/studio-admin/internal/metrics"
)

// observedTransport logs and measures every HTTP exchange.
type observedTransport struct {
	next    http.RoundTripper
	log     *zap.Logger
	metrics metrics.Recorder
}

func observe(next http.RoundTripper, log *zap.Logger, m metrics.Recorder) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if ot, ok := next.(*observedTransport); ok {
		next = ot.next
	}
	return &observedTransport{next: next, log: log, metrics: m}
}

// RoundTrip implements http.RoundTripper.
func (t *observedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	dur := time.Since(start)

	// metadata only, never bodies or the Authorization header
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", req.Header.Get("X-Request-Id")),
		zap.Bool("auth", req.Header.Get("Authorization") != ""),
		zap.Duration("dur", dur),
	}
	if err != nil {
		t.metrics.RecordTransportError(req.Method)
		t.log.Warn("api", append(fields, zap.Error(err))...)
		return nil, err
	}
	t.metrics.RecordRequest(req.Method, resp.StatusCode, dur)
	t.log.Info("api", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
