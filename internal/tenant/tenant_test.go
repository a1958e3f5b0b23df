package tenant

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// fakeEnv is an Environment with fixed values.
type fakeEnv struct {
	host    string
	query   url.Values
	cookies map[string]string
}

func (e *fakeEnv) Host() string {
	return e.host
}

func (e *fakeEnv) Query() url.Values {
	return e.query
}

func (e *fakeEnv) Cookie(name string) (string, bool) {
	v, ok := e.cookies[name]
	return v, ok
}

func TestResolveHeader(t *testing.T) {
	r := NewResolver(&fakeEnv{host: "ignored.example.com"})

	got, ok := r.Resolve(Config{TenantID: "acme", Source: SourceHeader})
	if !ok || got != "acme" {
		t.Errorf("Resolve = %q %v, want acme true", got, ok)
	}

	// Empty tenant id is a valid result, distinct from "not found".
	got, ok = r.Resolve(Config{TenantID: "", Source: SourceHeader})
	if !ok || got != "" {
		t.Errorf("empty header tenant: got %q %v, want \"\" true", got, ok)
	}
}

func TestResolveSubdomain(t *testing.T) {
	tests := []struct {
		host   string
		expect string
		found  bool
	}{
		{"a.b.example.com", "a", true},
		{"acme.portal.dotmac.io", "acme", true},
		{"acme.portal.dotmac.io:8443", "acme", true},
		{"example.com", "", false},
		{"localhost", "", false},
		{"localhost:3000", "", false},
		{"::1", "", false},
		{"[::1]:8080", "", false},
		{"[2001:db8::1]:443", "", false},
	}

	for _, tt := range tests {
		r := NewResolver(&fakeEnv{host: tt.host})
		got, ok := r.Resolve(Config{Source: SourceSubdomain})
		if got != tt.expect || ok != tt.found {
			t.Errorf("host %q: got %q %v, want %q %v", tt.host, got, ok, tt.expect, tt.found)
		}
	}
}

func TestResolveQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		expect string
		found  bool
	}{
		{"tenant preferred over tenantId", "tenant=first&tenantId=second", "first", true},
		{"tenantId fallback", "tenantId=second", "second", true},
		{"url decoding", "tenant=north%20region", "north region", true},
		{"neither present", "page=2", "", false},
	}

	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatalf("%s: bad query: %v", tt.name, err)
		}
		r := NewResolver(&fakeEnv{query: q})
		got, ok := r.Resolve(Config{Source: SourceQuery})
		if got != tt.expect || ok != tt.found {
			t.Errorf("%s: got %q %v, want %q %v", tt.name, got, ok, tt.expect, tt.found)
		}
	}
}

func TestResolveCookie(t *testing.T) {
	r := NewResolver(&fakeEnv{cookies: map[string]string{"tenant-id": "dash", "tenantId": "camel"}})
	if got, ok := r.Resolve(Config{Source: SourceCookie}); !ok || got != "dash" {
		t.Errorf("got %q %v, want tenant-id cookie preferred", got, ok)
	}

	r = NewResolver(&fakeEnv{cookies: map[string]string{"tenantId": "camel"}})
	if got, ok := r.Resolve(Config{Source: SourceCookie}); !ok || got != "camel" {
		t.Errorf("got %q %v, want tenantId fallback", got, ok)
	}

	r = NewResolver(&fakeEnv{cookies: map[string]string{}})
	if _, ok := r.Resolve(Config{Source: SourceCookie}); ok {
		t.Error("expected no tenant without cookies")
	}
}

func TestResolveUnknownSource(t *testing.T) {
	r := NewResolver(&fakeEnv{})
	if got, ok := r.Resolve(Config{TenantID: "fallback", Source: "bogus"}); !ok || got != "fallback" {
		t.Errorf("got %q %v, want configured id", got, ok)
	}
	if _, ok := r.Resolve(Config{Source: "bogus"}); ok {
		t.Error("empty configured id with unknown source should not resolve")
	}
}

func TestStatic(t *testing.T) {
	cfg := Static("known-tenant")
	// A static config must never depend on the environment.
	r := NewResolver(&fakeEnv{host: "other.b.example.com"})
	if got, ok := r.Resolve(cfg); !ok || got != "known-tenant" {
		t.Errorf("got %q %v, want known-tenant", got, ok)
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "http://acme.portal.dotmac.io/zones?tenant=qp", nil)
	req.AddCookie(&http.Cookie{Name: "tenant-id", Value: "ck"})
	r := NewResolver(FromRequest(req))

	if got, ok := r.Resolve(Config{Source: SourceSubdomain}); !ok || got != "acme" {
		t.Errorf("subdomain via request: got %q %v", got, ok)
	}
	if got, ok := r.Resolve(Config{Source: SourceQuery}); !ok || got != "qp" {
		t.Errorf("query via request: got %q %v", got, ok)
	}
	if got, ok := r.Resolve(Config{Source: SourceCookie}); !ok || got != "ck" {
		t.Errorf("cookie via request: got %q %v", got, ok)
	}
}
