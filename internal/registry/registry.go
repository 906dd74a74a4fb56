// Package registry holds the fixed set of endpoints the aggregator probes.
package registry

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/healthcheck/internal/domain"
)

var ErrInvalidEndpoint = errors.New("registry: invalid endpoint")

// Registry is immutable after New and safe for concurrent reads.
type Registry struct {
	specs []domain.EndpointSpec
	index map[string]int
}

// New validates every entry and returns all problems at once.
// Entries are kept sorted by name so iteration is stable.
func New(endpoints map[string]string) (*Registry, error) {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs error
	r := &Registry{
		specs: make([]domain.EndpointSpec, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		target := strings.TrimSpace(endpoints[name])
		if strings.TrimSpace(name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: empty service name", ErrInvalidEndpoint))
			continue
		}
		if !isValidHTTPURL(target) {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s: %q is not an http(s) url", ErrInvalidEndpoint, name, target))
			continue
		}
		r.index[name] = len(r.specs)
		r.specs = append(r.specs, domain.EndpointSpec{Name: name, Target: target})
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

// All returns a copy of the registered endpoints.
func (r *Registry) All() []domain.EndpointSpec {
	out := make([]domain.EndpointSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

func (r *Registry) Lookup(name string) (domain.EndpointSpec, bool) {
	i, ok := r.index[name]
	if !ok {
		return domain.EndpointSpec{}, false
	}
	return r.specs[i], true
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.Name
	}
	return out
}

func (r *Registry) Len() int { return len(r.specs) }

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
