package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ---------------------------------------------------------------------------
// RemoteError
// ---------------------------------------------------------------------------

// RemoteError wraps a storefront failure with the site and request it came from
type RemoteError struct {
	Site   shared.SiteCode
	Method string
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "woocommerce[%s] %s %s", e.Site, e.Method, e.Path)
	if e.Status > 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.Status)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

// Unwrap exposes the integration sentinel
func (e *RemoteError) Unwrap() error { return e.Err }

// Kind implements shared.KindedError
func (e *RemoteError) Kind() shared.ErrorKind { return shared.KindOf(e.Err) }

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client performs authenticated REST calls against one storefront
type Client struct {
	cfg        SiteConfig
	apiBase    string
	httpClient *http.Client
	retry      RetryPolicy
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *telemetry.SyncMetrics
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy replaces the retry policy; unset members keep their defaults
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p.withDefaults() }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLimiter replaces the outbound limiter; nil disables pacing
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics records every attempt on the sync metrics
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient returns a client bound to the site. Missing credentials are
// reported here, never at call time.
func NewClient(cfg SiteConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:        cfg,
		apiBase:    cfg.APIBase(),
		httpClient: &http.Client{},
		retry:      DefaultRetryPolicy(),
		logger:     zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("site", cfg.Code.String()))
	return c, nil
}

// Site returns the site the client is bound to
func (c *Client) Site() shared.SiteCode {
	return c.cfg.Code
}

// Config returns the validated site configuration
func (c *Client) Config() SiteConfig {
	return c.cfg
}

// Request performs one REST call with retries and returns the raw JSON body.
// path is relative to the REST root, e.g. "/products/12".
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("woocommerce: failed to encode request: %w", err)
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "woocommerce.request",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("site", c.cfg.Code.String()),
		telemetry.WithAttribute("http.method", method),
		telemetry.WithAttribute("http.path", path),
	)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
		}

		started := time.Now()
		raw, err := c.doAttempt(ctx, method, path, query, payload)
		c.metrics.ObserveRequest(ctx, c.cfg.Code, method, statusOf(err), time.Since(started))
		if err == nil {
			telemetry.SetAttribute(span, "attempts", attempt)
			telemetry.SetOK(span)
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil || !c.retry.Retryable(err) || attempt == c.retry.MaxAttempts {
			break
		}

		wait := c.retry.Backoff(attempt)
		c.logger.Warn("Storefront request failed, retrying",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := c.retry.Sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	telemetry.RecordError(span, lastErr)
	return nil, lastErr
}

func (c *Client) doAttempt(ctx context.Context, method, path string, query url.Values, payload []byte) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := c.apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reader)
	if err != nil {
		return nil, c.remoteErr(method, path, 0, "", fmt.Errorf("%w: %v", integration.ErrRemoteRequestFailed, err))
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, c.remoteErr(method, path, 0, "", integration.ErrRequestTimeout)
		}
		return nil, c.remoteErr(method, path, 0, "", fmt.Errorf("%w: %v", integration.ErrRemoteUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, c.remoteErr(method, path, resp.StatusCode, "", integration.ErrRequestTimeout)
		}
		return nil, c.remoteErr(method, path, resp.StatusCode, "", fmt.Errorf("%w: %v", integration.ErrRemoteUnavailable, err))
	}

	if resp.StatusCode >= 400 {
		return nil, c.remoteErr(method, path, resp.StatusCode, snippet(body), statusError(resp.StatusCode))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, c.remoteErr(method, path, resp.StatusCode, snippet(body), integration.ErrRemoteInvalidResponse)
	}
	return json.RawMessage(body), nil
}

func (c *Client) remoteErr(method, path string, status int, body string, err error) error {
	return &RemoteError{Site: c.cfg.Code, Method: method, Path: path, Status: status, Body: body, Err: err}
}

// statusError maps an HTTP status to an integration sentinel
func statusError(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return integration.ErrRemoteUnauthorized
	case http.StatusNotFound, http.StatusGone:
		return integration.ErrRemoteNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return integration.ErrRemoteUnavailable
	default:
		return integration.ErrRemoteRequestFailed
	}
}

// statusOf returns the HTTP status an attempt ended with, 0 when none arrived
func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// snippet keeps error bodies short enough for logs and results
func snippet(body []byte) string {
	const max = 300
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func decode[T any](c *Client, method, path string, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, c.remoteErr(method, path, 0, "", integration.ErrRemoteInvalidResponse)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, c.remoteErr(method, path, 0, snippet(raw), fmt.Errorf("%w: %v", integration.ErrRemoteInvalidResponse, err))
	}
	return out, nil
}
