package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"edgar_export/pkg/core/logging"
	"edgar_export/pkg/core/metrics"
)

const (
	// DefaultTimeout bounds every registry request.
	DefaultTimeout = 10 * time.Second

	// EDGAR fair-access policy allows 10 requests per second per user agent.
	DefaultRateLimit = 10

	maxBodyBytes = 64 << 20
)

// Doer performs HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is a fetched registry document.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Gateway is the single HTTP chokepoint for registry traffic.
// Fetch turns every failure into an absent result; Get exposes the status for callers
// that must tell "not found" from other failures.
type Gateway struct {
	client    Doer
	limiter   *rate.Limiter
	userAgent string
	headers   map[string]string
	maxBody   int64
	logger    *log.Logger
	metrics   *metrics.Metrics
}

// GatewayOption customizes a Gateway.
type GatewayOption func(g *Gateway)

// WithHTTPClient replaces the default client (tests, proxies).
func WithHTTPClient(c Doer) GatewayOption {
	return func(g *Gateway) { g.client = c }
}

// WithRateLimit sets the request rate in requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) GatewayOption {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.client = &http.Client{Timeout: d}
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) GatewayOption {
	return func(g *Gateway) { g.headers[key] = value }
}

// WithLogger sets the gateway logger.
func WithLogger(l *log.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway creates a gateway identifying itself with userAgent.
// SEC rejects requests without a descriptive User-Agent.
func NewGateway(userAgent string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		client:    &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(DefaultRateLimit, DefaultRateLimit),
		userAgent: userAgent,
		headers:   map[string]string{"Accept": "application/json, text/html, application/xml"},
		maxBody:   maxBodyBytes,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrDiscard(g.logger)
	return g
}

// Get performs a GET and returns the response whatever its status.
// An error is returned only when no response was received.
func (g *Gateway) Get(ctx context.Context, url string) (*Response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create GET request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.metrics.ObserveFetch(metrics.FetchTransport, start)
			return nil, fmt.Errorf("rate limit GET %s: %w", url, err)
		}
	}

	g.logger.Debug().Str("url", url).Msg("GET")
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.ObserveFetch(metrics.FetchTransport, start)
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBody+1))
	if err != nil {
		g.metrics.ObserveFetch(metrics.FetchTransport, start)
		return nil, fmt.Errorf("read body from GET %s: %w", url, err)
	}
	if int64(len(body)) > g.maxBody {
		g.metrics.ObserveFetch(metrics.FetchTransport, start)
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, g.maxBody)
	}

	out := &Response{URL: url, StatusCode: resp.StatusCode, Body: body}
	if out.OK() {
		g.metrics.ObserveFetch(metrics.FetchOK, start)
	} else {
		g.metrics.ObserveFetch(metrics.FetchStatus, start)
	}
	return out, nil
}

// Fetch performs a GET and returns the response only on a 2xx status.
// Transport failures and other statuses are logged and reported as absent.
func (g *Gateway) Fetch(ctx context.Context, url string) (*Response, bool) {
	resp, err := g.Get(ctx, url)
	if err != nil {
		g.logger.Error().Err(err).Str("url", url).Msg("request failed")
		return nil, false
	}
	if !resp.OK() {
		g.logger.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("non-success response")
		return nil, false
	}
	return resp, true
}
