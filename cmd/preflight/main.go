// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/healthcheck/internal/config"
	"github.com/hamed0406/healthcheck/internal/probe"
	"github.com/hamed0406/healthcheck/internal/registry"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		fail("configuration invalid")
	}
	ok("configuration loaded")

	reg, err := registry.New(cfg.Endpoints)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		fail("endpoint registry invalid")
	}
	ok(fmt.Sprintf("%d endpoints: %s", reg.Len(), strings.Join(reg.Names(), ",")))

	resolver := probe.NewResolver()
	for _, ep := range reg.All() {
		res := resolver.Resolve(context.Background(), ep.Name, ep.Target)
		if res.OK() {
			ok(fmt.Sprintf("%s host %s %s", ep.Name, res.Host, strings.ToLower(res.Class)))
			continue
		}
		warn(fmt.Sprintf("%s host %s does not resolve (%s) — probes will fail", ep.Name, res.Host, res.Class))
	}

	ok("ADDR=" + cfg.Addr)
	if strings.Contains(cfg.Endpoints["api"], cfg.Addr+"/api/") && !cfg.SimulateServices {
		warn("api endpoint targets this server but HEALTH_SIMULATE_SERVICES is off — it will report 404.")
	}
	if cfg.CacheTTL == 0 {
		warn("HEALTH_CACHE_TTL=0 — every request probes live.")
	}
	if cfg.CacheRedisURL == "" {
		warn("CACHE_REDIS_URL empty — using in-process cache.")
	} else {
		ok("CACHE_REDIS_URL present")
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty — CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}
	if cfg.RateLimitRPM == 0 {
		warn("PUBLIC_RPM=0 — rate limiting disabled.")
	}
	if cfg.RetryAttempts > 0 {
		warn(fmt.Sprintf("HEALTH_RETRY_ATTEMPTS=%d is accepted but probes are not retried.", cfg.RetryAttempts))
	}
	if cfg.Notifications.Enabled {
		warn("HEALTH_NOTIFICATIONS_ENABLED is set but no notifier is configured.")
	}

	ok("preflight passed")
}
