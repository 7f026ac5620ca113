package crawler

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	const base = "https://ex.com/blog/post1"

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{name: "absolute path joins scheme and host", base: base, href: "/about", want: "https://ex.com/about"},
		{name: "protocol relative gets https", base: base, href: "//cdn.ex.com/x", want: "https://cdn.ex.com/x"},
		{name: "relative is appended to base", base: base, href: "page2", want: "https://ex.com/blog/post1/page2"},
		{name: "absolute url unchanged", base: base, href: "https://ex.com/other", want: "https://ex.com/other"},
		{name: "http prefix is accepted loosely", base: base, href: "httpfoo", want: "httpfoo"},
		{name: "trailing slashes of base are trimmed", base: "https://ex.com/blog//", href: "a", want: "https://ex.com/blog/a"},
		{name: "absolute path keeps the port", base: "http://127.0.0.1:8080/a", href: "/b", want: "http://127.0.0.1:8080/b"},
		{name: "absolute path lowercases the host", base: "https://EX.com/Blog", href: "/a", want: "https://ex.com/a"},
		{name: "fragment-only reference is appended", base: base, href: "#top", want: "https://ex.com/blog/post1/#top"},
		{name: "empty href yields base with slash", base: base, href: "", want: "https://ex.com/blog/post1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Normalize(tt.base, tt.href)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestNormalizeMalformedBase(t *testing.T) {
	t.Parallel()

	for _, href := range []string{"/about", "page2"} {
		if _, err := Normalize("not a url", href); !errors.Is(err, ErrMalformedBaseURL) {
			t.Errorf("Normalize(%q) error = %v, want ErrMalformedBaseURL", href, err)
		}
	}

	t.Run("absolute hrefs do not need the base", func(t *testing.T) {
		t.Parallel()

		got, err := Normalize("not a url", "https://ex.com/x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://ex.com/x" {
			t.Errorf("got %q", got)
		}
	})
}

func TestParseAbsoluteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		wantErr bool
	}{
		{raw: "https://ex.com", wantErr: false},
		{raw: "mailto:me@ex.com", wantErr: false},
		{raw: "not a url", wantErr: true},
		{raw: "https://", wantErr: true},
		{raw: "http://[::1", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			_, err := parseAbsoluteURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseAbsoluteURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedBaseURL) {
				t.Errorf("error %v does not wrap ErrMalformedBaseURL", err)
			}
		})
	}
}
