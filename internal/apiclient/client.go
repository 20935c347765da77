// Package apiclient is the preconfigured HTTP client for the studio REST API.
//
// Every request is sent to BaseURL with Accept: application/json. A bearer
// token is attached when the injected TokenSource has one; otherwise the
// request goes out unauthenticated. Non-2xx responses and transport failures
// are normalized into *Error.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/metrics"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.softseven.ao/api"

// TokenSource yields the bearer token for the next request.
// An empty token with errs.ErrNoToken (or a nil error) means "send unauthenticated".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds transport settings. It is read once by New.
type Config struct {
	BaseURL         string
	Timeout         time.Duration // per attempt; 0 means 30s
	WithCredentials bool          // keep cookies between requests
	Insecure        bool          // skip TLS verification (dev only)
	Retries         int           // extra attempts for GET on transport errors / 502-504
	RetryBackoff    time.Duration // first retry delay, doubled per attempt
	RateLimit       float64       // requests per second, 0 = unlimited
	UserAgent       string
}

// Client performs JSON and multipart requests against the API.
type Client struct {
	base      string
	origin    string
	http      *http.Client
	tokens    TokenSource
	log       *zap.Logger
	metrics   metrics.Recorder
	limiter   *rate.Limiter
	retries   int
	backoff   time.Duration
	userAgent string
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option { return func(c *Client) { c.metrics = m } }

// WithHTTPClient bases the transport on a copy of h; h itself is left untouched.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h == nil {
			return
		}
		hc := *h
		c.http = &hc
	}
}

// New builds a Client. tokens may be nil for purely public access.
func New(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", base)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "studioctl/1.0"
	}

	c := &Client{
		base:      strings.TrimRight(base, "/"),
		origin:    u.Scheme + "://" + u.Host,
		tokens:    tokens,
		log:       zap.NewNop(),
		metrics:   metrics.Nop{},
		retries:   max(cfg.Retries, 0),
		backoff:   backoff,
		userAgent: ua,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Insecure {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in dev flag
		}
		c.http = &http.Client{Transport: tr}
	}
	c.http.Timeout = timeout
	if cfg.WithCredentials && c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	c.http.Transport = observe(c.http.Transport, c.log, c.metrics)
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string { return c.base }

// AssetURL turns a stored file reference (e.g. "/storage/x.jpg") into an absolute URL.
func (c *Client) AssetURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.origin + ref
}

// Do sends a JSON request. body may be nil; out may be nil to discard the response.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		payload = b
	}
	build := func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), rd)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
	return c.send(ctx, method, path, build, out)
}

// DoMultipart sends form as multipart/form-data.
func (c *Client) DoMultipart(ctx context.Context, method, path string, form *Form, out any) error {
	payload, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("apiclient: encode multipart %s %s: %w", method, path, err)
	}
	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, nil), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}
	return c.send(ctx, method, path, build, out)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) send(ctx context.Context, method, path string, build func(context.Context) (*http.Request, error), out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff<<(attempt-1)); err != nil {
				return err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		req, err := build(ctx)
		if err != nil {
			return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if id, err := uuid.NewV4(); err == nil {
			req.Header.Set("X-Request-Id", id.String())
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = transportError(method, path, err)
			continue
		}
		lastErr = c.handle(resp, method, path, out)
		if lastErr == nil || !retryableStatus(resp.StatusCode) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	tok, err := c.tokens.Token(ctx)
	if errors.Is(err, errs.ErrNoToken) {
		return "", nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// An unreadable token is no usable token; login must still work.
		c.log.Warn("token source failed, sending unauthenticated", zap.Error(err))
		return "", nil
	}
	return tok, nil
}

func (c *Client) handle(resp *http.Response, method, path string, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return transportError(method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

const maxBody = 16 << 20

func retryableStatus(code int) bool {
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
