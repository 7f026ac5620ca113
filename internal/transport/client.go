package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultMaxRedirects is the number of redirects a client follows before
// returning the last response.
const DefaultMaxRedirects = 10

// clientOptions holds the settings of NewHTTPClient.
type clientOptions struct {
	timeout      time.Duration
	proxyAddress string
	cookie       string
	headers      map[string]string
	maxRedirects int
}

// ClientOption configures NewHTTPClient.
type ClientOption func(*clientOptions)

// WithTimeout sets the overall client timeout. Zero means no timeout; the
// crawler applies its own per-fetch timeout in either case.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithSOCKS5Proxy routes every connection through the SOCKS5 proxy at
// address ("host:port"). An empty address means a direct connection.
func WithSOCKS5Proxy(address string) ClientOption {
	return func(o *clientOptions) {
		o.proxyAddress = address
	}
}

// WithCookie adds a raw cookie string (e.g., "session=abc") to every request.
func WithCookie(cookie string) ClientOption {
	return func(o *clientOptions) {
		o.cookie = cookie
	}
}

// WithHeaders sets extra headers on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) ClientOption {
	return func(o *clientOptions) {
		o.maxRedirects = n
	}
}

// NewHTTPClient builds the HTTP client used for fetching pages.
func NewHTTPClient(opts ...ClientOption) (*http.Client, error) {
	o := &clientOptions{maxRedirects: DefaultMaxRedirects}
	for _, opt := range opts {
		opt(o)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if o.proxyAddress != "" {
		if err := ValidateProxyAddress(o.proxyAddress); err != nil {
			return nil, err
		}
		// SOCKS ports of Tor and ssh -D do not require auth.
		dialer, err := proxy.SOCKS5("tcp", o.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = dialContext(dialer)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	maxRedirects := o.maxRedirects
	client := &http.Client{
		Transport: transport,
		Timeout:   o.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	if o.cookie != "" || len(o.headers) > 0 {
		client.Transport = &headerInjectingTransport{
			base:    client.Transport,
			cookie:  o.cookie,
			headers: o.headers,
		}
	}

	return client, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
// Dialers from proxy.SOCKS5 implement proxy.ContextDialer; others are
// dialed without cancellation.
func dialContext(dialer proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
}

// headerInjectingTransport adds a cookie and headers to every request,
// redirects included.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
