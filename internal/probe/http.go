package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "HealthCheckService/1.0"
	DefaultBodyLimit = 512
)

type HTTPProber struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	BodyLimit int64 // bytes of a failing response body kept in the error
	Logger    *zap.Logger
}

type Option func(*HTTPProber)

func WithUserAgent(ua string) Option {
	return func(p *HTTPProber) {
		if ua != "" {
			p.UserAgent = ua
		}
	}
}

func WithClient(c *http.Client) Option {
	return func(p *HTTPProber) {
		if c != nil {
			p.Client = c
		}
	}
}

func WithBodyLimit(n int64) Option {
	return func(p *HTTPProber) {
		if n > 0 {
			p.BodyLimit = n
		}
	}
}

func NewHTTPProber(timeout time.Duration, logger *zap.Logger, opts ...Option) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &HTTPProber{
		Client:    &http.Client{Timeout: timeout},
		Timeout:   timeout,
		UserAgent: DefaultUserAgent,
		BodyLimit: DefaultBodyLimit,
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe issues exactly one GET. The caller's cancellation does not reach an
// in-flight request; only the probe timeout bounds it.
func (p *HTTPProber) Probe(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.Timeout)
	defer cancel()

	res := domain.ProbeResult{Service: ep.Name, Endpoint: ep.Target}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.Target, nil)
	if err != nil {
		res.ResponseTimeMS = elapsedMS(start)
		return p.fail(res, err.Error())
	}
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		res.ResponseTimeMS = elapsedMS(start)
		return p.fail(res, err.Error())
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	res.StatusCode = &code

	// Response time covers the (bounded) body read, not just the headers.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, p.BodyLimit))
	res.ResponseTimeMS = elapsedMS(start)
	if code < 200 || code > 299 {
		return p.fail(res, fmt.Sprintf("HTTP %d: %s", code, strings.TrimSpace(string(body))))
	}

	res.Healthy = true
	res.ObservedAt = time.Now().UTC()
	return res
}

func (p *HTTPProber) fail(res domain.ProbeResult, msg string) domain.ProbeResult {
	res.Healthy = false
	res.Error = &msg
	res.ObservedAt = time.Now().UTC()

	p.Logger.Warn("health_check_failed",
		zap.String("service", res.Service),
		zap.String("endpoint", res.Endpoint),
		zap.String("error", msg),
		zap.Float64("response_time_ms", res.ResponseTimeMS),
	)
	return res
}

func elapsedMS(start time.Time) float64 {
	return domain.Round2(time.Since(start).Seconds() * 1000)
}
