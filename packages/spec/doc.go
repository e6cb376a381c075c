// Package spec builds the request and response specifications shared by
// every test in a suite.
//
// A RequestSpec carries the base URI, default headers and logging detail; a
// ResponseSpec carries logging detail and optional expectations. Both are
// immutable: derivation methods such as WithHeader and WithAuth return a new
// value and leave the receiver untouched, so a spec can be handed to helpers
// without copying.
//
// Configure sets the process-wide logging policy that decides whether the
// detail requested by a spec is actually written.
package spec
