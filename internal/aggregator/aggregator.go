// Package aggregator probes every registered endpoint through the result
// cache and rolls the outcomes into one verdict.
package aggregator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/metrics"
	"github.com/hamed0406/healthcheck/internal/registry"
)

// ErrUnknownService means the name is not registered. It is never used for
// probe failures.
var ErrUnknownService = errors.New("aggregator: service not found")

// ResultSource yields a (possibly cached) probe result for an endpoint.
type ResultSource interface {
	GetOrProbe(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult
}

// HostSampler reads host resources; it must not fail.
type HostSampler interface {
	Sample(ctx context.Context) domain.HostSnapshot
}

// Observer is told about every completed aggregation.
type Observer interface {
	Observe(res domain.AggregationResult)
}

// Observers fans one aggregation out to several observers in order.
type Observers []Observer

func (obs Observers) Observe(res domain.AggregationResult) {
	for _, o := range obs {
		o.Observe(res)
	}
}

type Aggregator struct {
	registry    *registry.Registry
	results     ResultSource
	sampler     HostSampler
	observer    Observer
	concurrency int
	log         *zap.Logger
	now         func() time.Time
}

type Option func(*Aggregator)

func WithObserver(o Observer) Option {
	return func(a *Aggregator) { a.observer = o }
}

// WithConcurrency bounds parallel probes; n <= 0 means one goroutine per
// endpoint.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(reg *registry.Registry, results ResultSource, sampler HostSampler, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry: reg,
		results:  results,
		sampler:  sampler,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CheckAll probes every endpoint concurrently. A failing endpoint is
// recorded and never aborts the rest.
func (a *Aggregator) CheckAll(ctx context.Context) domain.AggregationResult {
	specs := a.registry.All()
	results := make([]domain.ProbeResult, len(specs))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, ep := range specs {
		g.Go(func() error {
			results[i] = a.results.GetOrProbe(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	out := domain.AggregationResult{
		Status:         domain.StatusHealthy,
		ObservedAt:     a.now().UTC(),
		FailedServices: []string{},
		Services:       make(map[string]domain.ProbeResult, len(specs)),
	}
	var total float64
	for i, ep := range specs {
		r := results[i]
		out.Services[ep.Name] = r
		total += r.ResponseTimeMS
		if !r.Healthy {
			out.FailedServices = append(out.FailedServices, ep.Name)
		}
	}
	out.TotalResponseTimeMS = domain.Round2(total)
	if len(out.FailedServices) > 0 {
		out.Status = domain.StatusUnhealthy
	}

	host := a.sampler.Sample(ctx)
	out.Uptime = host.Uptime
	out.MemoryUsage = host.Memory
	out.DiskUsage = host.Disk

	a.log.Debug("aggregation_done",
		zap.String("status", string(out.Status)),
		zap.Int("services", len(specs)),
		zap.Strings("failed", out.FailedServices),
		zap.Float64("total_response_time_ms", out.TotalResponseTimeMS),
	)
	if a.observer != nil {
		a.observer.Observe(out)
	}
	return out
}

// CheckEndpoint checks one endpoint through the cache without aggregating.
func (a *Aggregator) CheckEndpoint(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult {
	return a.results.GetOrProbe(ctx, ep)
}

// Service checks a registered service by name.
func (a *Aggregator) Service(ctx context.Context, name string) (domain.ProbeResult, error) {
	ep, ok := a.registry.Lookup(name)
	if !ok {
		return domain.ProbeResult{}, ErrUnknownService
	}
	return a.CheckEndpoint(ctx, ep), nil
}

// Metrics aggregates and derives the monitoring snapshot.
func (a *Aggregator) Metrics(ctx context.Context) domain.MetricsSnapshot {
	return metrics.Derive(a.CheckAll(ctx), a.registry.Len())
}

// Services lists the registered names.
func (a *Aggregator) Services() []string {
	return a.registry.Names()
}
