package crawler

import (
	"errors"
	"testing"
)

func TestNewScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seed       string
		wantDomain string
		wantAnchor string
	}{
		{seed: "https://ex.com/blog/post1", wantDomain: "ex.com", wantAnchor: "/post1"},
		{seed: "https://ex.com/blog/", wantDomain: "ex.com", wantAnchor: "/blog"},
		{seed: "https://ex.com", wantDomain: "ex.com", wantAnchor: "/"},
		{seed: "https://ex.com/", wantDomain: "ex.com", wantAnchor: "/"},
		{seed: "https://ex.com//", wantDomain: "ex.com", wantAnchor: "/"},
		{seed: "http://127.0.0.1:8080/docs", wantDomain: "127.0.0.1", wantAnchor: "/docs"},
		{seed: "https://ex.com/a?q=1", wantDomain: "ex.com", wantAnchor: "/a"},
		{seed: "https://EX.com/blog", wantDomain: "ex.com", wantAnchor: "/blog"},
		{seed: "https://Ex.Com:8443/Docs", wantDomain: "ex.com", wantAnchor: "/Docs"},
	}

	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			t.Parallel()

			scope, err := NewScope(tt.seed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scope.Domain != tt.wantDomain {
				t.Errorf("Domain = %q, want %q", scope.Domain, tt.wantDomain)
			}
			if scope.BasePathAnchor != tt.wantAnchor {
				t.Errorf("BasePathAnchor = %q, want %q", scope.BasePathAnchor, tt.wantAnchor)
			}
		})
	}

	t.Run("malformed seed", func(t *testing.T) {
		t.Parallel()

		if _, err := NewScope("not a url"); !errors.Is(err, ErrMalformedBaseURL) {
			t.Errorf("error = %v, want ErrMalformedBaseURL", err)
		}
	})
}

func TestScopeInScope(t *testing.T) {
	t.Parallel()

	scope := Scope{Domain: "ex.com", BasePathAnchor: "/post1"}
	const current = "https://ex.com/blog/post1"

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "below the anchor", candidate: "https://ex.com/blog/post1/x", want: true},
		{name: "other domain", candidate: "https://other.com/post1", want: false},
		{name: "missing anchor", candidate: "https://ex.com/about", want: false},
		{name: "self loop", candidate: current, want: false},
		{name: "domain only in query", candidate: "https://evil.com/post1?ref=ex.com", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scope.InScope(tt.candidate, current); got != tt.want {
				t.Errorf("InScope(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}

	t.Run("root anchor matches any path", func(t *testing.T) {
		t.Parallel()

		root := Scope{Domain: "ex.com", BasePathAnchor: "/"}
		if !root.InScope("https://ex.com/anything/at/all", "https://ex.com/") {
			t.Error("expected root anchor to match")
		}
	})
}
