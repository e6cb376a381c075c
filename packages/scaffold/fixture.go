package scaffold

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/abdul-hamid-achik/gastosqa/packages/assertions"
	"github.com/abdul-hamid-achik/gastosqa/packages/auth"
	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
	"github.com/abdul-hamid-achik/gastosqa/packages/core/env"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
	"github.com/abdul-hamid-achik/gastosqa/packages/logging"
	"github.com/abdul-hamid-achik/gastosqa/packages/spec"
)

// Hook is the per-suite extension run at the end of SetupTest. Returning an
// error fails the test.
type Hook func(ctx context.Context, f *Fixture) error

// NoopHook is the default hook
func NoopHook(context.Context, *Fixture) error {
	return nil
}

type exchange struct {
	req     *http.Request
	reqSpec *spec.RequestSpec
	resp    *http.Response
}

// Fixture holds the configuration, the current specifications and the suite
// hook. It is meant for sequential use by one suite.
type Fixture struct {
	cfg      config.Provider
	log      logrus.FieldLogger
	tokens   auth.TokenSource
	client   *http.Client
	resolver *env.Resolver
	policy   spec.LogPolicy
	headers  map[string]string
	hook     Hook
	ctx      context.Context
	banner   io.Writer
	run      *Run

	t        assertions.TestingT
	testName string
	reqSpec  *spec.RequestSpec
	respSpec *spec.ResponseSpec
	last     *exchange
}

// Run scopes GlobalSetup to one test run. Fixtures sharing a Run perform
// global setup once between them, whichever suite gets there first.
type Run struct {
	once sync.Once
}

func NewRun() *Run {
	return &Run{}
}

// processRun is shared by every fixture built without WithRun
var processRun = NewRun()

type Option func(*Fixture)

// envLookup is satisfied by configs that carry their own variable lookup,
// such as *config.Config built by config.Load.
type envLookup interface {
	Getenv(key string) string
}

// WithRun attaches the fixture to r. Callers that start several runs in one
// process (watch mode) give each run its own value.
func WithRun(r *Run) Option {
	return func(f *Fixture) {
		if r != nil {
			f.run = r
		}
	}
}

func WithHook(h Hook) Option {
	return func(f *Fixture) {
		if h != nil {
			f.hook = h
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Fixture) {
		f.log = log
	}
}

// WithTokenSource replaces the placeholder token used by WithAuth
func WithTokenSource(src auth.TokenSource) Option {
	return func(f *Fixture) {
		if src != nil {
			f.tokens = src
		}
	}
}

func WithClient(c *http.Client) Option {
	return func(f *Fixture) {
		f.client = c
	}
}

func WithResolver(r *env.Resolver) Option {
	return func(f *Fixture) {
		f.resolver = r
	}
}

// WithLogPolicy sets the policy GlobalSetup applies. Defaults to
// spec.PolicyOnFailure.
func WithLogPolicy(p spec.LogPolicy) Option {
	return func(f *Fixture) {
		f.policy = p
	}
}

// WithDefaultHeaders adds headers to every request specification
func WithDefaultHeaders(headers map[string]string) Option {
	return func(f *Fixture) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

func WithContext(ctx context.Context) Option {
	return func(f *Fixture) {
		f.ctx = ctx
	}
}

// WithBanner writes the environment banner to w during GlobalSetup. A nil
// writer disables it.
func WithBanner(w io.Writer) Option {
	return func(f *Fixture) {
		f.banner = w
	}
}

func NewFixture(cfg config.Provider, opts ...Option) *Fixture {
	f := &Fixture{
		cfg:      cfg,
		log:      logging.Discard(),
		tokens:   auth.Placeholder(),
		policy:   spec.PolicyOnFailure,
		headers:  make(map[string]string),
		hook:     NoopHook,
		ctx:      context.Background(),
		banner:   os.Stdout,
		run:      processRun,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = http.NewClient()
	}
	if f.resolver == nil {
		f.resolver = env.NewResolver()
		if e, ok := cfg.(envLookup); ok {
			f.resolver.SetGetenv(e.Getenv)
		}
	}
	f.resolver.SetWarnFunc(func(format string, args ...any) {
		f.log.Warnf(format, args...)
	})
	return f
}

func (f *Fixture) Config() config.Provider          { return f.cfg }
func (f *Fixture) Logger() logrus.FieldLogger       { return f.log }
func (f *Fixture) Resolver() *env.Resolver          { return f.resolver }
func (f *Fixture) Context() context.Context         { return f.ctx }
func (f *Fixture) TestName() string                 { return f.testName }
func (f *Fixture) RequestSpec() *spec.RequestSpec   { return f.reqSpec }
func (f *Fixture) ResponseSpec() *spec.ResponseSpec { return f.respSpec }

// GlobalSetup logs the target environment and applies the process-wide
// logging policy. Only the first call across all fixtures sharing the Run
// has any effect.
func (f *Fixture) GlobalSetup() {
	f.run.once.Do(func() {
		environment, baseURL := f.cfg.CurrentEnvironment(), f.cfg.BaseURL()
		logging.Step(f.log, "GlobalSetup", nil)

		f.log.WithFields(logrus.Fields{
			"environment": environment,
			"base_url":    baseURL,
		}).Info("Configuring API tests")

		spec.Configure(f.policy)

		if f.banner != nil {
			PrintBanner(f.banner, environment, baseURL)
		}
	})
}

// SetupTest prepares fresh specifications for the named test and runs the
// suite hook. GlobalSetup runs first if it has not yet.
func (f *Fixture) SetupTest(t assertions.TestingT, name string) {
	t.Helper()
	f.GlobalSetup()

	f.t = t
	f.testName = name
	f.last = nil

	f.reqSpec = spec.NewRequestSpec(f.cfg.BaseURL(),
		spec.WithJSON(),
		spec.WithDefaultHeaders(f.headers),
		spec.WithLogDetail(spec.LogAll),
		spec.WithResolver(f.resolver),
	)
	f.respSpec = spec.NewResponseSpec(spec.WithResponseLogDetail(spec.LogAll))

	logging.Step(f.log, "SetupTest", logrus.Fields{"test": name})
	f.log.WithField("test", name).Info("Starting test")

	if err := f.hook(f.ctx, f); err != nil {
		t.Errorf("setup hook for %s: %v", name, err)
		t.FailNow()
	}
}

// WithAuth returns the current request specification with a bearer token.
// The fixture's own specification is unchanged.
func (f *Fixture) WithAuth() *spec.RequestSpec {
	f.mustBeSetUp()
	logging.Step(f.log, "WithAuth", nil)

	rs, err := f.reqSpec.WithAuth(f.ctx, f.tokens)
	if err != nil {
		f.t.Errorf("adding authentication: %v", err)
		f.t.FailNow()
		return f.reqSpec.WithoutAuth()
	}
	return rs
}

// WithoutAuth returns the current request specification with no
// Authorization header
func (f *Fixture) WithoutAuth() *spec.RequestSpec {
	f.mustBeSetUp()
	logging.Step(f.log, "WithoutAuth", nil)
	return f.reqSpec.WithoutAuth()
}

// VerifyStatusCode fails the current test when the codes differ. The last
// exchange is logged first when the policy only logs failures.
func (f *Fixture) VerifyStatusCode(actual, expected int) bool {
	f.mustBeSetUp()
	f.t.Helper()
	logging.Step(f.log, "VerifyStatusCode", logrus.Fields{"expected": expected, "actual": actual})

	if actual != expected {
		f.logLastExchange()
	}
	return assertions.VerifyStatusCode(f.t, actual, expected)
}

// VerifyFieldExists records the intent to check a field. It does not inspect
// any response; use assertions.Evaluator.FieldExists for a real check.
func (f *Fixture) VerifyFieldExists(path, fieldName string) {
	logging.Step(f.log, "VerifyFieldExists", logrus.Fields{"path": path, "field": fieldName})
	f.log.WithFields(logrus.Fields{"path": path, "field": fieldName}).
		Warn("Field presence was not asserted")
}

// Send issues a request built from rs and checks it against the current
// response specification
func (f *Fixture) Send(rs *spec.RequestSpec, method, path, body string) (*http.Response, error) {
	f.mustBeSetUp()
	return f.Exchange(rs, f.respSpec, method, path, body)
}

// Exchange issues a request built from rs and checks the response against
// expect. Failed expectations fail the current test.
func (f *Fixture) Exchange(rs *spec.RequestSpec, expect *spec.ResponseSpec, method, path, body string) (*http.Response, error) {
	f.mustBeSetUp()
	f.t.Helper()
	logging.Step(f.log, "Send", logrus.Fields{"method": method, "path": path})

	req := rs.Request(method, path, body)
	resp, err := f.client.Do(f.ctx, req)
	if err != nil {
		spec.LogExchange(f.log, req, rs, nil, nil, true)
		return nil, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	f.last = &exchange{req: req, reqSpec: rs, resp: resp}

	if expect == nil {
		expect = f.respSpec
	}
	results := expect.Validate(resp)
	failed := spec.Failed(results)
	spec.LogExchange(f.log, req, rs, resp, expect, failed)
	if failed {
		assertions.Require(f.t, results...)
	}
	return resp, nil
}

func (f *Fixture) logLastExchange() {
	if f.last == nil || spec.CurrentPolicy() != spec.PolicyOnFailure {
		return
	}
	spec.LogExchange(f.log, f.last.req, f.last.reqSpec, f.last.resp, f.respSpec, true)
}

func (f *Fixture) mustBeSetUp() {
	if f.reqSpec == nil || f.t == nil {
		panic("scaffold: SetupTest must be called before using the fixture")
	}
}

// LastExchange returns the most recent request and response sent by the
// current test, or nils when nothing was sent yet
func (f *Fixture) LastExchange() (*http.Request, *http.Response) {
	if f.last == nil {
		return nil, nil
	}
	return f.last.req, f.last.resp
}
