package spec

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/abdul-hamid-achik/gastosqa/packages/http"
)

// LogExchange writes a request/response pair at the detail the specs ask for,
// if the process-wide policy allows it for this outcome
func LogExchange(log logrus.FieldLogger, req *http.Request, reqSpec *RequestSpec, resp *http.Response, respSpec *ResponseSpec, failed bool) {
	if log == nil || !ShouldLog(failed) {
		return
	}

	level := logrus.InfoLevel
	if failed {
		level = logrus.WarnLevel
	}

	if req != nil && reqSpec != nil && reqSpec.LogDetail() != LogNone {
		fields := logrus.Fields{"method": req.Method, "url": req.URL}
		if reqSpec.LogDetail().headers() {
			fields["headers"] = redact(req.Headers)
		}
		if reqSpec.LogDetail().body() && req.Body != "" {
			fields["body"] = req.Body
		}
		log.WithFields(fields).Log(level, "request")
	}

	if resp != nil && respSpec != nil && respSpec.LogDetail() != LogNone {
		fields := logrus.Fields{"status": resp.StatusCode, "duration_ms": resp.DurationMs()}
		if respSpec.LogDetail().headers() {
			fields["headers"] = sortedHeaders(resp.Headers)
		}
		if respSpec.LogDetail().body() && len(resp.Body) > 0 {
			fields["body"] = resp.BodyString()
		}
		log.WithFields(fields).Log(level, "response")
	}
}

// redact hides credentials in logged request headers
func redact(headers map[string]string) []string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if http.IsSensitiveHeader(k) {
			v = "[redacted]"
		}
		out[k] = v
	}
	return sortedHeaders(out)
}

func sortedHeaders(headers map[string]string) []string {
	out := make([]string, 0, len(headers))
	for k, v := range headers {
		out = append(out, k+": "+v)
	}
	sort.Strings(out)
	return out
}
