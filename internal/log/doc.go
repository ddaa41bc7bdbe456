// Package log provides secure logging built on the standard slog package.
//
// SecureHandler wraps any slog.Handler and rewrites attributes before they
// are written:
//   - Values under credential keys (authorization, api_key, token, ...) are
//     replaced with MaskValue.
//   - String values that look like credentials (bearer tokens, JWTs, OpenAI
//     and Firecrawl keys, AWS access keys) are masked whatever their key.
//   - Page and model payloads (html, screenshot, prompt, raw_report) are
//     truncated to MaxPayloadLen bytes.
//
// Even in verbose mode keys never reach the output.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("model call", "api_key", key) // api_key=***REDACTED***
//
//	// serve and worker log at Info by default
//	logger = log.NewServiceLogger(os.Stderr, verbose, jsonOutput)
package log
