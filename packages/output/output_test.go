package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/gastosqa/packages/assertions"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
	"github.com/abdul-hamid-achik/gastosqa/packages/smoke"
)

func sampleResult() *smoke.RunResult {
	return &smoke.RunResult{
		Environment: "staging",
		BaseURL:     "https://staging.example.com",
		Duration:    1500 * time.Millisecond,
		Passed:      1,
		Failed:      2,
		Skipped:     1,
		Results: []*smoke.CheckResult{
			{
				Name:     "gastos-unicos-list",
				Tags:     []string{"gastos-unicos", "read"},
				Passed:   true,
				Duration: 120 * time.Millisecond,
				Request: &http.Request{
					Method:  "GET",
					URL:     "https://staging.example.com/gastos-unicos",
					Headers: map[string]string{"Authorization": "Bearer secret", "Accept": "application/json"},
				},
				Response: &http.Response{StatusCode: 200, Status: "200 OK"},
				Captures: map[string]any{"id": "1"},
			},
			{
				Name:     "gastos-unicos-create",
				Tags:     []string{"gastos-unicos", "write"},
				Duration: 80 * time.Millisecond,
				Response: &http.Response{StatusCode: 400, Status: "400 Bad Request"},
				Assertions: []*assertions.Result{
					{Subject: "status", Operator: "==", Expected: 201, Actual: 400, Message: "expected status code 201 but was 400"},
				},
				Errors: []error{errors.New("expected status code 201 but was 400")},
			},
			{
				Name:   "debitos-automaticos-list",
				Errors: []error{errors.New("GET https://staging.example.com/debitos-automaticos: connection refused")},
			},
			{
				Name:       "gastos-unicos-get",
				Skipped:    true,
				SkipReason: "dependency gastos-unicos-create did not pass",
			},
		},
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range Formats {
		f, err := New(format, &buf, false, true)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}
	_, err := New("html", &buf, false, true)
	assert.Error(t, err)
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Smoke checks: staging (https://staging.example.com)")
	assert.Contains(t, out, "✓ gastos-unicos-list (120ms)")
	assert.Contains(t, out, "GET https://staging.example.com/gastos-unicos")
	assert.Contains(t, out, "✗ gastos-unicos-create")
	assert.Contains(t, out, "Expected: 201")
	assert.Contains(t, out, "Actual:   400")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "- gastos-unicos-get (dependency gastos-unicos-create did not pass)")
	assert.Contains(t, out, "id = 1")
	assert.Contains(t, out, "1 passed, 2 failed, 1 skipped, 4 total")
}

func TestConsoleFormatter_HidesFilteredUnlessVerbose(t *testing.T) {
	result := &smoke.RunResult{Skipped: 1, Results: []*smoke.CheckResult{{Name: "hidden", Skipped: true, SkipReason: "filtered out"}}}

	var buf bytes.Buffer
	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true)).FormatResult(result)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(2*time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "staging", out.Environment)
	assert.Equal(t, JSONSummary{Total: 4, Passed: 1, Failed: 2, Skipped: 1}, out.Summary)
	require.Len(t, out.Checks, 4)
	assert.Equal(t, "[redacted]", out.Checks[0].Request.Headers["Authorization"])
	assert.Equal(t, "application/json", out.Checks[0].Request.Headers["Accept"])
	assert.Equal(t, []string{"expected status code 201 but was 400"}, out.Checks[1].Errors)
	assert.Equal(t, "dependency gastos-unicos-create did not pass", out.Checks[3].SkipReason)
	assert.NotContains(t, buf.String(), "secret")
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(2*time.Second))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal([]byte(out[strings.Index(out, "\n")+1:]), &suites))

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)
	require.Len(t, suites.TestSuites, 1)

	cases := suites.TestSuites[0].TestCases
	assert.Equal(t, "gastosqa.staging.gastos-unicos", cases[0].ClassName)
	require.NotNil(t, cases[1].Failure)
	assert.Contains(t, cases[1].Failure.Content, "expected 201, got 400")
	require.NotNil(t, cases[2].Error)
	assert.Contains(t, cases[2].Error.Message, "connection refused")
	require.NotNil(t, cases[3].Skipped)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.Contains(t, out, "TAP version 13\n1..4\n")
	assert.Contains(t, out, "ok 1 - gastos-unicos-list\n")
	assert.Contains(t, out, "not ok 2 - gastos-unicos-create\n  ---\n")
	assert.Contains(t, out, "  severity: fail\n")
	assert.Contains(t, out, "  status: 400\n")
	assert.Contains(t, out, "  severity: error\n")
	assert.Contains(t, out, "ok 4 - gastos-unicos-get # SKIP dependency gastos-unicos-create did not pass\n")
}
