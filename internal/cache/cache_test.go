package cache

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// ---- fakes ----

type countingProber struct {
	calls atomic.Int64
	delay time.Duration
	now   func() time.Time
}

func (p *countingProber) Probe(_ context.Context, ep domain.EndpointSpec) domain.ProbeResult {
	n := p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	code := 200
	return domain.ProbeResult{
		Service:        ep.Name,
		Endpoint:       ep.Target,
		Healthy:        true,
		StatusCode:     &code,
		ResponseTimeMS: float64(n),
		ObservedAt:     p.now(),
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type brokenStore struct{}

func (brokenStore) Load(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("load boom")
}

func (brokenStore) Save(context.Context, string, Entry, time.Duration) error {
	return errors.New("save boom")
}

func newTestCache(ttl time.Duration) (*ResultCache, *countingProber, *fakeClock, *MemoryStore) {
	clk := &fakeClock{now: time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)}
	p := &countingProber{now: clk.Now}
	store := NewMemoryStore()
	return New(store, p, ttl, WithClock(clk.Now)), p, clk, store
}

var api = domain.EndpointSpec{Name: "api", Target: "http://svc/ok"}

// ---- tests ----

func TestGetOrProbe_FreshHitReturnsIdenticalResult(t *testing.T) {
	c, p, clk, _ := newTestCache(30 * time.Second)
	ctx := context.Background()

	first := c.GetOrProbe(ctx, api)
	clk.Advance(29 * time.Second)
	second := c.GetOrProbe(ctx, api)

	if p.calls.Load() != 1 {
		t.Fatalf("want 1 probe, got %d", p.calls.Load())
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached result differs:\nfirst =%+v\nsecond=%+v", first, second)
	}
}

func TestGetOrProbe_ExpiryTriggersExactlyOneProbe(t *testing.T) {
	c, p, clk, _ := newTestCache(30 * time.Second)
	ctx := context.Background()

	c.GetOrProbe(ctx, api)
	clk.Advance(30 * time.Second) // now - storedAt == ttl is stale
	got := c.GetOrProbe(ctx, api)
	if p.calls.Load() != 2 {
		t.Fatalf("want 2 probes, got %d", p.calls.Load())
	}
	if got.ResponseTimeMS != 2 {
		t.Fatalf("want the new probe's result, got %+v", got)
	}

	// The re-probe restarted the window.
	clk.Advance(10 * time.Second)
	c.GetOrProbe(ctx, api)
	if p.calls.Load() != 2 {
		t.Fatalf("want still 2 probes, got %d", p.calls.Load())
	}
}

func TestGetOrProbe_NamesAreIndependent(t *testing.T) {
	c, p, _, store := newTestCache(time.Minute)
	ctx := context.Background()

	a := c.GetOrProbe(ctx, api)
	b := c.GetOrProbe(ctx, domain.EndpointSpec{Name: "redis", Target: "http://svc/redis"})
	if p.calls.Load() != 2 {
		t.Fatalf("want 2 probes, got %d", p.calls.Load())
	}
	if a.Service != "api" || b.Service != "redis" {
		t.Fatalf("results crossed: %+v %+v", a, b)
	}
	if store.Len() != 2 {
		t.Fatalf("want 2 entries, got %d", store.Len())
	}
}

func TestGetOrProbe_ZeroTTLDisablesCaching(t *testing.T) {
	c, p, _, store := newTestCache(0)
	ctx := context.Background()

	c.GetOrProbe(ctx, api)
	c.GetOrProbe(ctx, api)
	if p.calls.Load() != 2 {
		t.Fatalf("want 2 probes, got %d", p.calls.Load())
	}
	if store.Len() != 0 {
		t.Fatalf("nothing should be stored, got %d", store.Len())
	}
}

func TestGetOrProbe_ConcurrentMissesShareOneProbe(t *testing.T) {
	c, p, _, _ := newTestCache(time.Minute)
	p.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := c.GetOrProbe(context.Background(), api); !res.Healthy {
				t.Errorf("unexpected result %+v", res)
			}
		}()
	}
	wg.Wait()

	if p.calls.Load() != 1 {
		t.Fatalf("want 1 probe, got %d", p.calls.Load())
	}
}

func TestGetOrProbe_StoreErrorsDegradeToLiveProbe(t *testing.T) {
	p := &countingProber{now: time.Now}
	c := New(brokenStore{}, p, time.Minute)

	res := c.GetOrProbe(context.Background(), api)
	if !res.Healthy {
		t.Fatalf("want live result, got %+v", res)
	}
	c.GetOrProbe(context.Background(), api)
	if p.calls.Load() != 2 {
		t.Fatalf("want 2 probes with broken store, got %d", p.calls.Load())
	}
}

func TestEntry_FreshAt(t *testing.T) {
	stored := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{StoredAt: stored}
	if !e.FreshAt(stored.Add(time.Second), 2*time.Second) {
		t.Fatalf("1s old entry should be fresh under 2s ttl")
	}
	if e.FreshAt(stored.Add(2*time.Second), 2*time.Second) {
		t.Fatalf("entry aged exactly ttl should be stale")
	}
}
