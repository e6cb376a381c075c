package spec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/gastosqa/packages/auth"
	"github.com/abdul-hamid-achik/gastosqa/packages/core/env"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"

	ContentTypeJSON = "application/json"
)

// RequestSpec is the request template applied to every call a test makes
type RequestSpec struct {
	baseURI   string
	headers   map[string]string
	logDetail LogDetail
	resolver  *env.Resolver
}

type RequestOption func(*RequestSpec)

// WithDefaultHeader sets a header on every request built from the spec
func WithDefaultHeader(key, value string) RequestOption {
	return func(s *RequestSpec) {
		s.setHeader(key, value)
	}
}

// WithDefaultHeaders sets several headers at once
func WithDefaultHeaders(headers map[string]string) RequestOption {
	return func(s *RequestSpec) {
		for k, v := range headers {
			s.setHeader(k, v)
		}
	}
}

// WithJSON sets Content-Type and Accept to application/json
func WithJSON() RequestOption {
	return func(s *RequestSpec) {
		s.setHeader(HeaderContentType, ContentTypeJSON)
		s.setHeader(HeaderAccept, ContentTypeJSON)
	}
}

func WithLogDetail(d LogDetail) RequestOption {
	return func(s *RequestSpec) {
		s.logDetail = d
	}
}

// WithResolver enables {{placeholder}} interpolation of paths and bodies
func WithResolver(r *env.Resolver) RequestOption {
	return func(s *RequestSpec) {
		s.resolver = r
	}
}

func NewRequestSpec(baseURI string, opts ...RequestOption) *RequestSpec {
	s := &RequestSpec{
		baseURI:   baseURI,
		headers:   make(map[string]string),
		logDetail: LogAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RequestSpec) clone() *RequestSpec {
	c := *s
	c.headers = make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		c.headers[k] = v
	}
	return &c
}

// setHeader replaces any header with the same name regardless of case.
// Only used while the spec is still private to its builder.
func (s *RequestSpec) setHeader(key, value string) {
	s.deleteHeader(key)
	s.headers[key] = value
}

func (s *RequestSpec) deleteHeader(key string) {
	for k := range s.headers {
		if strings.EqualFold(k, key) {
			delete(s.headers, k)
		}
	}
}

func (s *RequestSpec) BaseURI() string {
	return s.baseURI
}

func (s *RequestSpec) LogDetail() LogDetail {
	return s.logDetail
}

// Header returns a header value, matching the name case-insensitively
func (s *RequestSpec) Header(key string) string {
	for k, v := range s.headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// HasHeader reports whether a header is set, matching the name
// case-insensitively
func (s *RequestSpec) HasHeader(key string) bool {
	for k := range s.headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Headers returns a copy of the headers
func (s *RequestSpec) Headers() map[string]string {
	out := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		out[k] = v
	}
	return out
}

// WithHeader returns a spec with the header set
func (s *RequestSpec) WithHeader(key, value string) *RequestSpec {
	c := s.clone()
	c.setHeader(key, value)
	return c
}

// WithoutHeader returns a spec without the header
func (s *RequestSpec) WithoutHeader(key string) *RequestSpec {
	c := s.clone()
	c.deleteHeader(key)
	return c
}

// WithAuth returns a spec carrying exactly one Authorization header with a
// bearer token from src
func (s *RequestSpec) WithAuth(ctx context.Context, src auth.TokenSource) (*RequestSpec, error) {
	if src == nil {
		src = auth.Placeholder()
	}
	token, err := src.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}
	if token == "" {
		return nil, auth.ErrNoToken
	}
	return s.WithHeader(HeaderAuthorization, auth.BearerHeader(token)), nil
}

// WithoutAuth returns a spec with no Authorization header
func (s *RequestSpec) WithoutAuth() *RequestSpec {
	return s.WithoutHeader(HeaderAuthorization)
}

// Request builds a request for path relative to the base URI. Placeholders
// in path, body and header values are resolved when the spec has a resolver.
func (s *RequestSpec) Request(method, path, body string) *http.Request {
	if s.resolver != nil {
		path = s.resolver.Resolve(path)
		body = s.resolver.Resolve(body)
	}

	req := http.NewRequest(method, http.JoinURL(s.baseURI, path))
	for k, v := range s.headers {
		if s.resolver != nil {
			v = s.resolver.Resolve(v)
		}
		req.SetHeader(k, v)
	}
	if body != "" {
		req.SetBody(body)
	}
	return req
}

func (s *RequestSpec) String() string {
	names := make([]string, 0, len(s.headers))
	for k := range s.headers {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("RequestSpec{baseURI=%s headers=%v log=%s}", s.baseURI, names, s.logDetail)
}
