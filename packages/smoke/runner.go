package smoke

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/gastosqa/packages/assertions"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
	"github.com/abdul-hamid-achik/gastosqa/packages/scaffold"
)

type Config struct {
	NameFilter string
	TagsFilter []string
	Bail       bool
}

type Runner struct {
	fixture *scaffold.Fixture
	config  *Config
	log     logrus.FieldLogger
}

func NewRunner(f *scaffold.Fixture, cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Runner{
		fixture: f,
		config:  cfg,
		log:     f.Logger(),
	}
}

type RunResult struct {
	Environment string
	BaseURL     string
	Results     []*CheckResult
	Duration    time.Duration
	Passed      int
	Failed      int
	Skipped     int
}

type CheckResult struct {
	Name       string
	Tags       []string
	Passed     bool
	Skipped    bool
	SkipReason string
	Attempts   int
	Duration   time.Duration
	Request    *http.Request
	Response   *http.Response
	Assertions []*assertions.Result
	Captures   map[string]any
	Errors     []error
}

// Error returns the first recorded error
func (r *CheckResult) Error() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Run executes checks in order. Cancelling ctx skips the remaining checks.
func (r *Runner) Run(ctx context.Context, checks []Check) *RunResult {
	start := time.Now()
	cfg := r.fixture.Config()
	result := &RunResult{
		Environment: cfg.CurrentEnvironment(),
		BaseURL:     cfg.BaseURL(),
	}

	r.fixture.GlobalSetup()

	executed := make(map[string]*CheckResult)
	bailed := false

	for _, check := range checks {
		var res *CheckResult
		switch {
		case bailed:
			res = skipped(check, "bail after failure")
		case ctx.Err() != nil:
			res = skipped(check, "cancelled")
		case !r.shouldRun(check):
			res = skipped(check, "filtered out")
		case check.Skip != "":
			res = skipped(check, check.Skip)
		default:
			if dep := failedDependency(check, executed); dep != "" {
				res = skipped(check, fmt.Sprintf("dependency %s did not pass", dep))
			} else {
				res = r.runWithRetry(ctx, check)
			}
		}

		executed[check.Name] = res
		result.Results = append(result.Results, res)

		switch {
		case res.Skipped:
			result.Skipped++
		case res.Passed:
			result.Passed++
		default:
			result.Failed++
			if r.config.Bail {
				bailed = true
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}

func skipped(check Check, reason string) *CheckResult {
	return &CheckResult{
		Name:       check.Name,
		Tags:       check.Tags,
		Skipped:    true,
		SkipReason: reason,
	}
}

// failedDependency returns the first dependency that ran and did not pass
func failedDependency(check Check, executed map[string]*CheckResult) string {
	for _, dep := range check.Depends {
		if res, ok := executed[dep]; ok && !res.Passed {
			return dep
		}
	}
	return ""
}

func (r *Runner) shouldRun(check Check) bool {
	if r.config.NameFilter != "" && !matchesPattern(check.Name, r.config.NameFilter) {
		return false
	}
	if len(r.config.TagsFilter) > 0 && !hasAnyTag(check.Tags, r.config.TagsFilter) {
		return false
	}
	return true
}

func (r *Runner) runWithRetry(ctx context.Context, check Check) *CheckResult {
	delay := check.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var res *CheckResult
	for attempt := 0; attempt <= check.Retry; attempt++ {
		res = r.runCheck(check)
		res.Attempts = attempt + 1

		if res.Passed || !shouldRetry(check, res) || attempt == check.Retry {
			return res
		}

		r.log.WithFields(logrus.Fields{"check": check.Name, "attempt": attempt + 1}).Info("Retrying check")
		select {
		case <-ctx.Done():
			return res
		case <-time.After(delay):
		}
	}
	return res
}

func shouldRetry(check Check, res *CheckResult) bool {
	if len(check.RetryOn) == 0 {
		return true
	}
	if res.Response == nil {
		return false
	}
	for _, status := range check.RetryOn {
		if res.Response.StatusCode == status {
			return true
		}
	}
	return false
}

func (r *Runner) runCheck(check Check) *CheckResult {
	f := r.fixture
	res := &CheckResult{
		Name:     check.Name,
		Tags:     check.Tags,
		Captures: make(map[string]any),
	}

	start := time.Now()
	rec := newRecorder(check.Name)
	rec.run(func(t *recorder) {
		f.SetupTest(t, check.Name)

		rs := f.WithoutAuth()
		if check.Auth {
			rs = f.WithAuth()
		}

		body := check.Body
		if check.Payload != nil {
			rendered, err := check.Payload(f.Resolver())
			if err != nil {
				t.Errorf("%v", err)
				t.FailNow()
			}
			body = rendered
		}

		// status is validated first so a wrong code is reported before any
		// schema error it causes
		expect := f.ResponseSpec().WithStatus(check.ExpectStatus)
		if len(check.Schema) > 0 {
			expect = expect.WithSchema(check.Schema)
		}

		resp, err := f.Exchange(rs, expect, check.Method, check.Path, body)
		if err != nil {
			t.Errorf("%v", err)
			t.FailNow()
		}

		for name, path := range check.Captures {
			value := gjson.GetBytes(resp.Body, path)
			if !value.Exists() {
				t.Errorf("capture %s: no value at %s", name, path)
				continue
			}
			res.Captures[name] = value.Value()
			f.Resolver().SetCapture(check.Name, name, value.Value())
		}
	})
	res.Duration = time.Since(start)

	res.Request, res.Response = f.LastExchange()
	if res.Response != nil {
		e := assertions.NewEvaluator(res.Response)
		res.Assertions = append(res.Assertions, e.Status(check.ExpectStatus))
		if len(check.Schema) > 0 {
			res.Assertions = append(res.Assertions, e.MatchesSchema(check.Schema))
		}
	}

	res.Errors = rec.errors
	res.Passed = !rec.failed

	entry := r.log.WithFields(logrus.Fields{"check": check.Name, "duration_ms": res.Duration.Milliseconds()})
	if res.Passed {
		entry.Info("Check passed")
	} else {
		entry.WithError(res.Error()).Warn("Check failed")
	}
	return res
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		for _, tag := range tags {
			if tag == filter {
				return true
			}
		}
	}
	return false
}
