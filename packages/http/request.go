package http

import (
	"strings"
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

// Header returns a request header, matching the name case-insensitively
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// JoinURL joins a base URL and a path with exactly one slash between them
func JoinURL(base, path string) string {
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// SensitiveHeaders are redacted whenever requests are logged
var SensitiveHeaders = []string{"Authorization", "Cookie", "X-Api-Key", "Api-Key"}

// IsSensitiveHeader reports whether a header carries credentials
func IsSensitiveHeader(key string) bool {
	for _, s := range SensitiveHeaders {
		if strings.EqualFold(key, s) {
			return true
		}
	}
	return false
}
