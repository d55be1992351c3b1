package server

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

// TestOriginAllowedNormalization verifies that scheme and host comparison is
// case-insensitive while unlisted origins stay blocked.
func TestOriginAllowedNormalization(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:8080"}, zerolog.Nop())

	cases := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:8080", true},
		{"HTTP://LocalHost:8080", true},
		{"https://localhost:8080", false},
		{"http://evil.example", false},
		{"", false},
		{"not a url", false},
	}

	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/ws", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := p.isAllowed(r); got != tc.want {
			t.Errorf("isAllowed(origin=%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}

// TestOriginWildcardAllowsAll verifies that a "*" entry admits any
// well-formed origin but still rejects requests without one.
func TestOriginWildcardAllowsAll(t *testing.T) {
	p := newOriginPolicy([]string{"*"}, zerolog.Nop())

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "https://anything.example")
	if !p.isAllowed(r) {
		t.Error("Wildcard policy rejected a well-formed origin")
	}

	bare := httptest.NewRequest("GET", "/ws", nil)
	if p.isAllowed(bare) {
		t.Error("Wildcard policy accepted a request without an Origin header")
	}
}

// TestOriginInvalidConfigEntriesIgnored verifies that malformed configured
// origins are skipped rather than silently matching anything.
func TestOriginInvalidConfigEntriesIgnored(t *testing.T) {
	p := newOriginPolicy([]string{"", "   ", "no-scheme", "http://good.example"}, zerolog.Nop())

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Origin", "http://good.example")
	if !p.isAllowed(r) {
		t.Error("Valid configured origin was not admitted")
	}

	if len(p.allowed) != 1 {
		t.Errorf("Allow-list has %d entries, want 1", len(p.allowed))
	}
}
