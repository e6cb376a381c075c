// Package http provides the HTTP transport used by gastosqa specifications.
//
// It wraps the standard library's http package with additional features:
//   - A per-client timeout and context cancellation
//   - Default headers applied to every request
//   - Client-side rate limiting so shared environments are not flooded
//   - Redirect limits, an optional proxy and TLS verification bypass
//
// The same client serves the API under test and the OAuth2 token endpoint.
package http
