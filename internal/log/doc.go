// Package log provides slog loggers that mask sensitive values.
//
// Cookies and authorization headers configured for a site, bearer tokens,
// and passwords embedded in seed or proxy URLs never reach the log output,
// not even in verbose mode.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetch", "cookie", "session=abc") // cookie=***REDACTED***
package log
