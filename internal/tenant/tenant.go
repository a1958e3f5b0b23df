// Package tenant resolves the active tenant identifier from one of
// several configurable sources. All ambient state (host, query string,
// cookies) comes in through the Environment interface so resolution is
// deterministic and testable.
package tenant

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Source selects where the tenant identifier is read from.
type Source string

const (
	SourceHeader    Source = "header"
	SourceSubdomain Source = "subdomain"
	SourceQuery     Source = "query"
	SourceCookie    Source = "cookie"
)

// Config is the read-only resolution input.
type Config struct {
	TenantID string `yaml:"tenant_id"`
	Source   Source `yaml:"source"`
}

// Static builds a header-sourced config from an already-known tenant,
// e.g. one taken from an authenticated session. Resolution of a static
// config never inspects the environment.
func Static(tenantID string) Config {
	return Config{TenantID: tenantID, Source: SourceHeader}
}

// Environment provides the ambient request state resolution reads from.
type Environment interface {
	// Host returns the request host, possibly including a port.
	Host() string
	// Query returns the decoded query parameters.
	Query() url.Values
	// Cookie returns the named cookie's value and whether it was present.
	Cookie(name string) (string, bool)
}

// Resolver resolves tenant identifiers against one environment.
type Resolver struct {
	env Environment
}

// NewResolver creates a resolver over the given environment.
func NewResolver(env Environment) *Resolver {
	return &Resolver{env: env}
}

// Resolve returns the tenant identifier for the config's source and
// whether one was found. An empty identifier with found=true is a valid,
// distinct outcome (the header source passes the configured value
// through verbatim).
func (r *Resolver) Resolve(cfg Config) (string, bool) {
	switch cfg.Source {
	case SourceHeader:
		return cfg.TenantID, true

	case SourceSubdomain:
		return r.FromHost()

	case SourceQuery:
		q := r.env.Query()
		if vs, ok := q["tenant"]; ok && len(vs) > 0 {
			return vs[0], true
		}
		if vs, ok := q["tenantId"]; ok && len(vs) > 0 {
			return vs[0], true
		}
		return "", false

	case SourceCookie:
		if v, ok := r.env.Cookie("tenant-id"); ok {
			return v, true
		}
		if v, ok := r.env.Cookie("tenantId"); ok {
			return v, true
		}
		return "", false

	default:
		if cfg.TenantID != "" {
			return cfg.TenantID, true
		}
		return "", false
	}
}

// FromHost resolves the tenant from the host's first label. Hosts with
// two or fewer labels (bare domains, localhost) carry no tenant.
func (r *Resolver) FromHost() (string, bool) {
	host := r.env.Host()
	// SplitHostPort handles bracketed IPv6; a portless host errors and is
	// used as-is.
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		return labels[0], true
	}
	return "", false
}

// requestEnv adapts an *http.Request into an Environment.
type requestEnv struct {
	req *http.Request
}

// FromRequest builds the Environment backing resolution for one inbound
// portal request.
func FromRequest(req *http.Request) Environment {
	return &requestEnv{req: req}
}

func (e *requestEnv) Host() string {
	return e.req.Host
}

func (e *requestEnv) Query() url.Values {
	return e.req.URL.Query()
}

func (e *requestEnv) Cookie(name string) (string, bool) {
	c, err := e.req.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}
