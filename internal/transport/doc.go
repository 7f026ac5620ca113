// Package transport builds the HTTP clients graphix fetches pages with.
//
// Clients may route through a SOCKS5 proxy (an external one or a private
// Tor daemon started with EmbeddedTor) and can add a cookie and custom
// headers to every request, which lets a crawl reach pages behind a login.
package transport
