// Package probe performs single HTTP health probes against endpoints.
package probe

import (
	"context"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// Prober performs one live check. Implementations never return errors:
// every failure mode is captured in the result.
type Prober interface {
	Probe(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult

func (f ProberFunc) Probe(ctx context.Context, ep domain.EndpointSpec) domain.ProbeResult {
	return f(ctx, ep)
}
