package assertions

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/gastosqa/packages/http"
)

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

func (r *Result) String() string {
	if r.Passed {
		return fmt.Sprintf("%s %s: ok", r.Subject, r.Operator)
	}
	return fmt.Sprintf("%s %s: %s", r.Subject, r.Operator, r.Message)
}

// Evaluator runs checks against a single response
type Evaluator struct {
	response *http.Response
	bodyJSON gjson.Result
	isJSON   bool
}

func NewEvaluator(resp *http.Response) *Evaluator {
	e := &Evaluator{response: resp}
	if gjson.ValidBytes(resp.Body) && len(strings.TrimSpace(string(resp.Body))) > 0 {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.isJSON = true
	}
	return e
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

// normalizePath accepts "body.a.b", "$.a.b" and "a.b"
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, "body")
	path = strings.TrimPrefix(path, ".")
	return convertBracketNotation(path)
}

func (e *Evaluator) lookup(path string) (gjson.Result, error) {
	if !e.isJSON {
		return gjson.Result{}, fmt.Errorf("response body is not JSON")
	}
	p := normalizePath(path)
	if p == "" {
		return e.bodyJSON, nil
	}
	return e.bodyJSON.Get(p), nil
}

// Status checks the response status code
func (e *Evaluator) Status(expected int) *Result {
	r := &Result{Subject: "status", Operator: "==", Expected: expected, Actual: e.response.StatusCode}
	if e.response.StatusCode == expected {
		r.Passed = true
		return r
	}
	r.Message = StatusMessage(e.response.StatusCode, expected)
	return r
}

// HeaderContains checks that a response header contains substr
func (e *Evaluator) HeaderContains(name, substr string) *Result {
	actual := e.response.Header(name)
	r := &Result{Subject: "header " + name, Operator: "contains", Expected: substr, Actual: actual}
	if strings.Contains(actual, substr) {
		r.Passed = true
		return r
	}
	r.Message = fmt.Sprintf("expected '%v' to contain '%v'", actual, substr)
	return r
}

// FieldExists checks that the JSON body has a value at path
func (e *Evaluator) FieldExists(path string) *Result {
	r := &Result{Subject: path, Operator: "exists"}
	value, err := e.lookup(path)
	if err != nil {
		r.Message = err.Error()
		return r
	}
	if !value.Exists() {
		r.Message = "expected to exist"
		return r
	}
	r.Actual = value.Value()
	r.Passed = true
	return r
}

// FieldType checks the JSON type at path: string, number, boolean, array,
// object or null
func (e *Evaluator) FieldType(path, expected string) *Result {
	r := &Result{Subject: path, Operator: "type", Expected: expected}
	value, err := e.lookup(path)
	if err != nil {
		r.Message = err.Error()
		return r
	}
	if !value.Exists() {
		r.Message = "expected to exist"
		return r
	}

	actualType := typeName(value.Value())
	r.Actual = actualType
	if actualType == expected {
		r.Passed = true
		return r
	}
	r.Message = fmt.Sprintf("expected type %s, got %s", expected, actualType)
	return r
}

// FieldEquals compares the JSON value at path with expected. Numbers compare
// by value regardless of Go type.
func (e *Evaluator) FieldEquals(path string, expected any) *Result {
	r := &Result{Subject: path, Operator: "==", Expected: expected}
	value, err := e.lookup(path)
	if err != nil {
		r.Message = err.Error()
		return r
	}
	var actual any
	if value.Exists() {
		actual = value.Value()
	}
	r.Actual = actual
	r.Passed, r.Message = equals(actual, expected)
	return r
}

// MatchesSchema validates the whole body against a JSON schema document
func (e *Evaluator) MatchesSchema(schema []byte) *Result {
	r := &Result{Subject: "body", Operator: "schema"}
	if !e.isJSON {
		r.Message = "response body is not JSON"
		return r
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(e.response.Body),
	)
	if err != nil {
		r.Message = fmt.Sprintf("schema validation error: %v", err)
		return r
	}
	if result.Valid() {
		r.Passed = true
		return r
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	r.Message = fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; "))
	return r
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk && actualNum == expectedNum {
		return true, ""
	}

	if actual != nil && fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).String()
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
