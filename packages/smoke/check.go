package smoke

import (
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/env"
	"github.com/abdul-hamid-achik/gastosqa/packages/expenses"
)

// DefaultRetryDelay is the wait between retries when a check sets none
const DefaultRetryDelay = time.Second

// Check is one request and its expectations
type Check struct {
	Name string
	Tags []string
	// Auth sends the request with a bearer token
	Auth   bool
	Method string
	// Path and Body may contain {{placeholders}}
	Path string
	Body string
	// Payload, when set, renders the body before the request is sent and
	// replaces Body. A render error fails the check without sending.
	Payload      func(*env.Resolver) (string, error)
	ExpectStatus int
	// Schema, when set, must validate the response body
	Schema []byte
	// Captures maps a name to a JSON path read from the response body. The
	// value is available to later checks as {{<check name>.<name>}}.
	Captures map[string]string
	Depends  []string
	// Skip, when set, is the reason the check never runs
	Skip       string
	Retry      int
	RetryDelay time.Duration
	RetryOn    []int
}

// DefaultChecks returns the standard smoke checks for every catalog entity:
// unauthenticated list, list, create, read and delete
func DefaultChecks() []Check {
	var checks []Check
	for _, e := range expenses.All() {
		checks = append(checks, EntityChecks(e)...)
	}
	return checks
}

// EntityChecks returns the standard smoke checks for one entity
func EntityChecks(e expenses.Entity) []Check {
	create := e.Name + "-create"
	item := e.ItemPath("{{" + create + ".id}}")

	return []Check{
		{
			Name:         e.Name + "-list-unauthorized",
			Tags:         []string{e.Name, "auth"},
			Method:       http.MethodGet,
			Path:         e.Path,
			ExpectStatus: http.StatusUnauthorized,
		},
		{
			Name:         e.Name + "-list",
			Tags:         []string{e.Name, "read"},
			Auth:         true,
			Method:       http.MethodGet,
			Path:         e.Path,
			ExpectStatus: http.StatusOK,
			Schema:       e.ListSchema(),
		},
		{
			Name:         create,
			Tags:         []string{e.Name, "write"},
			Auth:         true,
			Method:       http.MethodPost,
			Path:         e.Path,
			Payload:      e.Payload,
			ExpectStatus: http.StatusCreated,
			Schema:       e.ItemSchema(),
			Captures:     map[string]string{"id": "id"},
		},
		{
			Name:         e.Name + "-get",
			Tags:         []string{e.Name, "read"},
			Auth:         true,
			Method:       http.MethodGet,
			Path:         item,
			ExpectStatus: http.StatusOK,
			Schema:       e.ItemSchema(),
			Depends:      []string{create},
		},
		{
			Name:         e.Name + "-delete",
			Tags:         []string{e.Name, "write"},
			Auth:         true,
			Method:       http.MethodDelete,
			Path:         item,
			ExpectStatus: http.StatusNoContent,
			Depends:      []string{create},
		},
	}
}
