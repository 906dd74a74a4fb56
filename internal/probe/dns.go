package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// Resolution classes reported by Resolve.
const (
	DNSResolves     = "RESOLVES"
	DNSNotFound     = "NXDOMAIN"
	DNSTemporary    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName  = "INVALID_NAME"
	DNSLiteralIP    = "IP_LITERAL"
	defaultDNSLimit = 3 * time.Second
)

// Resolution describes whether an endpoint's host resolves.
type Resolution struct {
	Service string
	Host    string
	IPs     []net.IP
	Class   string
	Err     string
}

// OK reports whether the host can be dialed by name or is an IP literal.
func (r Resolution) OK() bool {
	return r.Class == DNSResolves || r.Class == DNSLiteralIP
}

// HostLookup is satisfied by *net.Resolver.
type HostLookup interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Resolver looks up endpoint hosts before any probe is sent.
type Resolver struct {
	Lookup  HostLookup
	Timeout time.Duration
}

func NewResolver() *Resolver {
	return &Resolver{Lookup: net.DefaultResolver, Timeout: defaultDNSLimit}
}

// Resolve classifies the host of target.
func (r *Resolver) Resolve(ctx context.Context, service, target string) Resolution {
	res := Resolution{Service: service, Host: hostOf(target)}
	if res.Host == "" {
		res.Class = DNSInvalidName
		return res
	}
	if ip := net.ParseIP(res.Host); ip != nil {
		res.IPs = []net.IP{ip}
		res.Class = DNSLiteralIP
		return res
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultDNSLimit
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ips, err := r.Lookup.LookupIP(ctx, "ip", res.Host)
	switch {
	case err == nil && len(ips) > 0:
		res.IPs = ips
		res.Class = DNSResolves
	case err == nil:
		res.Class = DNSNotFound
	default:
		res.Err = err.Error()
		res.Class = DNSTemporary
		var de *net.DNSError
		if errors.As(err, &de) && de.IsNotFound {
			res.Class = DNSNotFound
		}
	}
	return res
}

func hostOf(target string) string {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
