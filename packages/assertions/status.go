package assertions

import "fmt"

// TestingT is the subset of *testing.T the assertion helpers need. It is
// satisfied by *testing.T, testify's suite T() and the smoke runner's
// recorder.
type TestingT interface {
	Errorf(format string, args ...any)
	FailNow()
	Helper()
}

// StatusMessage formats the failure message for a status code mismatch
func StatusMessage(actual, expected int) string {
	return fmt.Sprintf("expected status code %d but was %d", expected, actual)
}

// VerifyStatusCode fails t when actual differs from expected. The test stops
// at the first mismatch. It reports whether the codes matched.
func VerifyStatusCode(t TestingT, actual, expected int) bool {
	t.Helper()
	if actual == expected {
		return true
	}
	t.Errorf("%s", StatusMessage(actual, expected))
	t.FailNow()
	return false
}

// Require reports every failed result on t and stops the test if any failed
func Require(t TestingT, results ...*Result) bool {
	t.Helper()
	failed := false
	for _, r := range results {
		if r == nil || r.Passed {
			continue
		}
		failed = true
		t.Errorf("%s", r.String())
	}
	if failed {
		t.FailNow()
	}
	return !failed
}
