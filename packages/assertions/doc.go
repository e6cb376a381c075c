// Package assertions provides the checks suites run against API responses.
//
// Supported checks:
//   - Status code comparison (VerifyStatusCode)
//   - Header checks (HeaderContains)
//   - JSON field presence and type (FieldExists, FieldType)
//   - JSON field values (FieldEquals)
//   - JSON Schema validation (MatchesSchema)
//
// Evaluator checks return a Result; Require reports failed results on a
// TestingT so they surface as test failures.
package assertions
