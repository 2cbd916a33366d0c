// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masking of operator contact addresses embedded in logged values
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - Email addresses, wherever they appear inside attribute values
//
// The SEC fair-access policy requires the operator's contact address inside
// the User-Agent header, and that header shows up in request logging. Even in
// verbose mode the address is masked, so logs can be shared in bug reports
// without leaking it.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "user_agent", "edgar-crawler/2.0 (admin@example.com)", // address masked
//	    "url", "https://www.sec.gov/Archives/",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
