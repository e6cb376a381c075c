package spec

import (
	"github.com/abdul-hamid-achik/gastosqa/packages/assertions"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
)

// ResponseSpec holds the response logging detail and optional expectations
// checked by Validate
type ResponseSpec struct {
	logDetail   LogDetail
	status      int
	contentType string
	schema      []byte
}

type ResponseOption func(*ResponseSpec)

func WithResponseLogDetail(d LogDetail) ResponseOption {
	return func(s *ResponseSpec) {
		s.logDetail = d
	}
}

func NewResponseSpec(opts ...ResponseOption) *ResponseSpec {
	s := &ResponseSpec{logDetail: LogAll}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ResponseSpec) LogDetail() LogDetail {
	return s.logDetail
}

// ExpectedStatus returns the expected status code, 0 when unset
func (s *ResponseSpec) ExpectedStatus() int {
	return s.status
}

// WithStatus returns a spec expecting the given status code
func (s *ResponseSpec) WithStatus(code int) *ResponseSpec {
	c := *s
	c.status = code
	return &c
}

// WithContentType returns a spec expecting the Content-Type to contain ct
func (s *ResponseSpec) WithContentType(ct string) *ResponseSpec {
	c := *s
	c.contentType = ct
	return &c
}

// WithSchema returns a spec expecting the body to match a JSON schema
func (s *ResponseSpec) WithSchema(schema []byte) *ResponseSpec {
	c := *s
	c.schema = schema
	return &c
}

// Validate checks resp against every expectation that is set
func (s *ResponseSpec) Validate(resp *http.Response) []*assertions.Result {
	e := assertions.NewEvaluator(resp)

	var results []*assertions.Result
	if s.status != 0 {
		results = append(results, e.Status(s.status))
	}
	if s.contentType != "" {
		results = append(results, e.HeaderContains(HeaderContentType, s.contentType))
	}
	if len(s.schema) > 0 {
		results = append(results, e.MatchesSchema(s.schema))
	}
	return results
}

// Failed reports whether any result did not pass
func Failed(results []*assertions.Result) bool {
	for _, r := range results {
		if r != nil && !r.Passed {
			return true
		}
	}
	return false
}
