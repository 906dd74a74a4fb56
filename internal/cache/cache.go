// Package cache keeps the last probe result per service for a freshness
// window so repeated health queries don't hammer dependencies.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hamed0406/healthcheck/internal/domain"
	"github.com/hamed0406/healthcheck/internal/probe"
)

// Entry is one stored probe result. It is fresh while now-StoredAt < ttl.
type Entry struct {
	Result   domain.ProbeResult `json:"result"`
	StoredAt time.Time          `json:"stored_at"`
}

func (e Entry) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Store is the backing key/value layer. Entries for different names never
// interact. Load reports ok=false on miss.
type Store interface {
	Load(ctx context.Context, name string) (Entry, bool, error)
	Save(ctx context.Context, name string, e Entry, ttl time.Duration) error
}

// ResultCache answers from a fresh entry or probes live and stores the
// result. Staleness is only evaluated on read.
type ResultCache struct {
	store  Store
	prober probe.Prober
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
	group  singleflight.Group
}

type Option func(*ResultCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *ResultCache) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a cache over store. A ttl <= 0 disables caching.
func New(store Store, prober probe.Prober, ttl time.Duration, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:  store,
		prober: prober,
		ttl:    ttl,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) TTL() time.Duration { return c.ttl }

// GetOrProbe never fails: store errors degrade to a live probe.
func (c *ResultCache) GetOrProbe(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult {
	if c.ttl <= 0 {
		return c.prober.Probe(ctx, ep)
	}
	if res, ok := c.fresh(ctx, ep.Name); ok {
		return res
	}

	// Concurrent misses for one name share a single probe, which runs to
	// completion even if the first caller goes away.
	ctx = context.WithoutCancel(ctx)
	v, _, _ := c.group.Do(ep.Name, func() (any, error) {
		if res, ok := c.fresh(ctx, ep.Name); ok {
			return res, nil
		}
		res := c.prober.Probe(ctx, ep)
		entry := Entry{Result: res, StoredAt: c.now()}
		if err := c.store.Save(ctx, ep.Name, entry, c.ttl); err != nil {
			c.log.Warn("cache_store_error",
				zap.String("service", ep.Name),
				zap.Error(err),
			)
		}
		return res, nil
	})
	return v.(domain.ProbeResult)
}

func (c *ResultCache) fresh(ctx context.Context, name string) (domain.ProbeResult, bool) {
	e, ok, err := c.store.Load(ctx, name)
	if err != nil {
		c.log.Warn("cache_load_error", zap.String("service", name), zap.Error(err))
		return domain.ProbeResult{}, false
	}
	if !ok || !e.FreshAt(c.now(), c.ttl) {
		return domain.ProbeResult{}, false
	}
	return e.Result, true
}
