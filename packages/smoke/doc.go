// Package smoke runs a sequence of HTTP checks against the expense API
// through a scaffold.Fixture.
//
// Each check runs in its own recording test context, so a failed assertion
// stops that check but not the run. Checks can:
//   - be filtered by name pattern (*suffix, prefix*, *contains*) and tags
//   - depend on earlier checks and are skipped when a dependency did not pass
//   - capture JSON fields from a response for later paths ({{check.field}})
//   - retry on selected status codes
//
// DefaultChecks builds the standard list, read, create and delete checks for
// every entity in the expenses catalog.
package smoke
