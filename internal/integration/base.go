// Package integration holds the HTTP plumbing shared by every third-party client:
// timeouts, rate limiting, a circuit breaker per vendor, latency metrics and spans.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"foreclosure-assist/pkg/circuitbreaker"
	"foreclosure-assist/pkg/config"
	"foreclosure-assist/pkg/metrics"
	"foreclosure-assist/pkg/otel"
	"foreclosure-assist/pkg/util"
)

// maxBody caps how much of a vendor response is read into memory.
const maxBody = 4 << 20

// APIError is returned for any non-2xx vendor response.
type APIError struct {
	Vendor     string
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Vendor, e.Operation, e.StatusCode, e.Body)
}

// Temporary reports whether the vendor may succeed on retry.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Request describes one call. Path is joined to the client's base URL unless it is absolute.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header
}

// JSONRequest marshals body and sets the JSON content type.
func JSONRequest(method, path string, body any) (*Request, error) {
	req := &Request{Method: method, Path: path}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		req.Body = data
		req.ContentType = "application/json"
	}
	return req, nil
}

// FormRequest encodes form as application/x-www-form-urlencoded.
func FormRequest(method, path string, form url.Values) *Request {
	return &Request{
		Method:      method,
		Path:        path,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}
}

// Authorizer decorates outgoing requests with credentials.
type Authorizer func(ctx context.Context, r *http.Request) error

// BearerAuth sets Authorization: Bearer <token>.
func BearerAuth(token string) Authorizer {
	return func(_ context.Context, r *http.Request) error {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// BasicAuth sets HTTP basic credentials.
func BasicAuth(user, pass string) Authorizer {
	return func(_ context.Context, r *http.Request) error {
		r.SetBasicAuth(user, pass)
		return nil
	}
}

// BaseClient is embedded by each vendor client.
type BaseClient struct {
	name    string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	auth    Authorizer
	logger  *zap.Logger
}

// Option customises a BaseClient.
type Option func(*BaseClient)

// WithHTTPClient replaces the underlying http.Client (tests point it at httptest servers).
func WithHTTPClient(c *http.Client) Option {
	return func(b *BaseClient) { b.http = c }
}

// WithAuth sets the request authorizer.
func WithAuth(a Authorizer) Option {
	return func(b *BaseClient) { b.auth = a }
}

// WithBreaker overrides the default breaker configuration.
func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(b *BaseClient) { b.breaker = circuitbreaker.New(b.name, withFailureFilter(cfg)) }
}

func NewBaseClient(name string, cfg config.VendorConfig, logger *zap.Logger, opts ...Option) *BaseClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		burst = max(1, int(cfg.RPS))
	}

	b := &BaseClient{
		name:    name,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.New(name, withFailureFilter(circuitbreaker.DefaultConfig())),
		logger:  logger.With(zap.String("vendor", name)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// 4xx responses are the caller's fault and must not open the breaker.
func withFailureFilter(cfg circuitbreaker.Config) circuitbreaker.Config {
	cfg.IsFailure = func(err error) bool {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.Temporary()
		}
		return true
	}
	return cfg
}

func (b *BaseClient) Name() string    { return b.name }
func (b *BaseClient) BaseURL() string { return b.baseURL }

// BreakerState exposes the breaker for the connectivity report.
func (b *BaseClient) BreakerState() circuitbreaker.State { return b.breaker.State() }

// HTTPClient returns the underlying client for raw calls such as HEAD checks.
func (b *BaseClient) HTTPClient() *http.Client { return b.http }

// Do executes req and returns the response body. Temporary failures are wrapped
// with util.Retryable so MQ handlers requeue them.
func (b *BaseClient) Do(ctx context.Context, operation string, req *Request) ([]byte, error) {
	ctx, span := otel.StartSpan(ctx, b.name+"."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("vendor", b.name), attribute.String("operation", operation))

	start := time.Now()
	var body []byte
	err := b.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		body, err = b.send(ctx, operation, req)
		return err
	})

	status := "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
			status = "circuit_open"
		}
		otel.RecordError(span, err)
		b.logger.Warn("Vendor call failed",
			zap.String("operation", operation),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	}
	metrics.RecordVendorCallLatency(b.name, operation, status, time.Since(start))

	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return nil, err
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, util.Retryable(err)
	}
	return body, nil
}

func (b *BaseClient) send(ctx context.Context, operation string, req *Request) ([]byte, error) {
	target := req.Path
	switch {
	case target == "":
		target = b.baseURL
	case !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://"):
		target = b.baseURL + "/" + strings.TrimPrefix(target, "/")
	}
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if req.Body != nil {
		reader = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if b.auth != nil {
		if err := b.auth(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
	}

	resp, err := b.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &APIError{
			Vendor:     b.name,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       snippet,
		}
	}
	return body, nil
}
