// Package scaffold is the shared per-suite fixture for expense API tests.
//
// A Fixture is built once per suite from an explicit configuration value and
// composed into the suite instead of inherited:
//
//	fx := scaffold.NewFixture(cfg, scaffold.WithHook(func(ctx context.Context, f *scaffold.Fixture) error {
//		// suite-specific preparation
//		return nil
//	}))
//	fx.GlobalSetup()
//	fx.SetupTest(t, "creates a gasto unico")
//	resp, err := fx.Send(fx.WithAuth(), "GET", "/gastos-unicos", "")
//	fx.VerifyStatusCode(resp.StatusCode, 200)
//
// GlobalSetup runs once per Run however many fixtures and suites call it.
// Fixtures share a process-wide Run unless WithRun gives them another. SetupTest
// rebuilds the request and response specifications so nothing leaks between
// tests, then runs the suite hook. Every helper logs a named step.
//
// Suite embeds testify's suite.Suite and wires both lifecycle calls.
package scaffold
