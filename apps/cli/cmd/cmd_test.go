package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
	"github.com/abdul-hamid-achik/gastosqa/packages/expenses"
	"github.com/abdul-hamid-achik/gastosqa/packages/smoke"
	"github.com/abdul-hamid-achik/gastosqa/packages/spec"
)

// resetFlags restores every flag global and the log policy after the test
func resetFlags(t *testing.T) {
	t.Helper()

	envFlag, envFileFlag, configFlag = "", "", ""
	nameFlag, tagsFlag = "", ""
	verboseFlag = 0
	bailFlag, noColorFlag, watchFlag, forceInit = false, true, false, false
	outputFlag, outputFileFlag = "console", ""
	notifyFlag, notifyOnFlag, slackWebhookFlag, slackChannelFlag = "", "failure", "", ""

	policy := spec.CurrentPolicy()
	t.Cleanup(func() { spec.Configure(policy) })
}

// execute runs the root command with fresh flag values
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gastosqa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gastosqa version dev")
	assert.Contains(t, stdout, "Built: unknown")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitTestFailure, exitCode(withExitCode(ExitTestFailure, nil)))
	assert.Equal(t, ExitConfigError, exitCode(withExitCode(ExitConfigError, errors.New("bad"))))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag")))

	err := withExitCode(ExitConfigError, config.ErrNoBaseURL)
	assert.ErrorIs(t, err, config.ErrNoBaseURL)
	assert.Equal(t, config.ErrNoBaseURL.Error(), err.Error())
	assert.Equal(t, "exit status 1", withExitCode(ExitTestFailure, nil).Error())
}

func TestInitCommand(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	stdout, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gastosqa.yaml")
	assert.FileExists(t, ".env.example")

	cfg, err := config.LoadConfig("gastosqa.yaml")
	require.NoError(t, err)
	require.NoError(t, config.Validate(cfg))

	staging := cfg.ForEnvironment("staging")
	assert.Equal(t, "https://staging.example.com", staging.BaseURL())
	assert.Equal(t, config.AuthJWT, staging.Auth.Type)
	assert.Equal(t, config.AuthOAuth2, cfg.ForEnvironment("prod").Auth.Type)

	t.Run("refuses to overwrite", func(t *testing.T) {
		_, _, err := execute(t, "init")
		require.Error(t, err)
		assert.Equal(t, ExitUsageError, exitCode(err))
		assert.Contains(t, err.Error(), "--force")
	})

	t.Run("force overwrites", func(t *testing.T) {
		_, _, err := execute(t, "init", "--force")
		assert.NoError(t, err)
	})
}

func TestEnvCommand(t *testing.T) {
	path := writeConfig(t, `
environment: dev
baseUrl: http://localhost:9000
headers:
  X-Api-Key: secret-key
  X-Tenant: acme
environments:
  staging:
    baseUrl: https://staging.example.com
    auth:
      type: jwt
      secret: s
`)

	stdout, _, err := execute(t, "env", "--config", path, "--env-file", emptyEnvFile(t), "--env", "staging")
	require.NoError(t, err)
	assert.Contains(t, stdout, "staging")
	assert.Contains(t, stdout, "https://staging.example.com")
	assert.Contains(t, stdout, "jwt")
	assert.Contains(t, stdout, "X-Tenant: acme")
	assert.Contains(t, stdout, "X-Api-Key: [redacted]")
	assert.NotContains(t, stdout, "secret-key")
}

func TestEnvCommand_PlaceholderAuth(t *testing.T) {
	path := writeConfig(t, "environment: dev\nbaseUrl: http://localhost:9000\n")

	stdout, _, err := execute(t, "env", "--config", path, "--env-file", emptyEnvFile(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "static (placeholder)")
}

func TestEnvCommand_ConfigError(t *testing.T) {
	_, _, err := execute(t, "env", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--env-file", emptyEnvFile(t))
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

// unauthorizedAPI answers every request with 401
func unauthorizedAPI(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSmokeCommand_FilteredRunPasses(t *testing.T) {
	server := unauthorizedAPI(t)
	path := writeConfig(t, "environment: staging\nbaseUrl: "+server.URL+"\n")

	stdout, stderr, err := execute(t, "smoke",
		"--config", path, "--env-file", emptyEnvFile(t),
		"--name", "*-list-unauthorized", "-o", "json")
	require.NoError(t, err)

	require.True(t, gjson.Valid(stdout), stdout)
	assert.Equal(t, "staging", gjson.Get(stdout, "environment").String())
	assert.Equal(t, int64(3), gjson.Get(stdout, "summary.passed").Int())
	assert.Equal(t, int64(0), gjson.Get(stdout, "summary.failed").Int())
	assert.Equal(t, int64(12), gjson.Get(stdout, "summary.skipped").Int())

	// the banner moves to stderr so the report stays parseable
	assert.Contains(t, stderr, server.URL)
}

func TestSmokeCommand_EntityArgument(t *testing.T) {
	server := unauthorizedAPI(t)
	path := writeConfig(t, "environment: dev\nbaseUrl: "+server.URL+"\n")

	stdout, _, err := execute(t, "smoke", "gastos-unicos",
		"--config", path, "--env-file", emptyEnvFile(t),
		"--tags", "auth", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, int64(5), gjson.Get(stdout, "summary.total").Int())
	assert.Equal(t, int64(1), gjson.Get(stdout, "summary.passed").Int())
}

func TestSmokeCommand_FailuresExitOne(t *testing.T) {
	server := unauthorizedAPI(t)
	path := writeConfig(t, "environment: dev\nbaseUrl: "+server.URL+"\n")

	stdout, _, err := execute(t, "smoke", "--config", path, "--env-file", emptyEnvFile(t))
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))
	assert.Contains(t, stdout, "Checks:")
	assert.Contains(t, stdout, "gastos-unicos-create")
	assert.Contains(t, stdout, "Actual:")
}

func TestSmokeCommand_Bail(t *testing.T) {
	server := unauthorizedAPI(t)
	path := writeConfig(t, "environment: dev\nbaseUrl: "+server.URL+"\n")

	stdout, _, err := execute(t, "smoke", "--config", path, "--env-file", emptyEnvFile(t), "--bail", "-o", "json")
	require.Error(t, err)
	assert.Equal(t, int64(1), gjson.Get(stdout, "summary.failed").Int())
	assert.Equal(t, "bail after failure", gjson.Get(stdout, "checks.2.skipReason").String())
}

func TestSmokeCommand_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	path := writeConfig(t, "environment: dev\nbaseUrl: "+url+"\n")

	_, _, err := execute(t, "smoke", "--config", path, "--env-file", emptyEnvFile(t), "-o", "tap")
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
	assert.Contains(t, err.Error(), url)
}

func TestSmokeCommand_OutputFile(t *testing.T) {
	server := unauthorizedAPI(t)
	path := writeConfig(t, "environment: dev\nbaseUrl: "+server.URL+"\n")
	report := filepath.Join(t.TempDir(), "report.xml")

	stdout, _, err := execute(t, "smoke",
		"--config", path, "--env-file", emptyEnvFile(t),
		"--name", "gastos-unicos-list-unauthorized",
		"-o", "junit", "--output-file", report)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<testsuites")
	assert.Contains(t, string(data), "gastos-unicos-list-unauthorized")
}

func TestSmokeCommand_UsageErrors(t *testing.T) {
	_, _, err := execute(t, "smoke", "-o", "html")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, _, err = execute(t, "smoke", "gastos-imaginarios")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestSmokeCommand_BadLogPolicy(t *testing.T) {
	path := writeConfig(t, "environment: dev\nbaseUrl: http://localhost:9000\nlogPolicy: sometimes\n")

	_, _, err := execute(t, "smoke", "--config", path, "--env-file", emptyEnvFile(t))
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestSmokeCommand_NotifiesSlack(t *testing.T) {
	server := unauthorizedAPI(t)
	path := writeConfig(t, "environment: qa\nbaseUrl: "+server.URL+"\n")

	var payload []byte
	slack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ = io.ReadAll(r.Body)
	}))
	defer slack.Close()

	_, _, err := execute(t, "smoke", "gastos-recurrentes",
		"--config", path, "--env-file", emptyEnvFile(t),
		"--notify", "slack", "--slack-webhook", slack.URL, "--slack-channel", "#gastos")
	require.Error(t, err)
	assert.Equal(t, ExitTestFailure, exitCode(err))

	require.NotEmpty(t, payload)
	assert.Equal(t, "#gastos", gjson.GetBytes(payload, "channel").String())
	assert.Contains(t, gjson.GetBytes(payload, "attachments.0.title").String(), "on qa")
	assert.Contains(t, gjson.GetBytes(payload, "attachments.0.text").String(), "gastos-recurrentes-list")
}

func TestBuildNotifier(t *testing.T) {
	t.Cleanup(func() { notifyFlag, notifyOnFlag, slackWebhookFlag = "", "failure", "" })

	notifyFlag = ""
	m, err := buildNotifier()
	require.NoError(t, err)
	assert.Nil(t, m)

	notifyFlag, notifyOnFlag = "slack", "failure"
	_, err = buildNotifier()
	assert.ErrorContains(t, err, "--slack-webhook")

	notifyFlag, slackWebhookFlag = "teams", "https://hooks.example.com"
	_, err = buildNotifier()
	assert.ErrorContains(t, err, "unknown notification service")

	notifyFlag, notifyOnFlag = "slack", "weekly"
	_, err = buildNotifier()
	assert.Error(t, err)
}

func TestSelectChecks(t *testing.T) {
	all, err := selectChecks(nil)
	require.NoError(t, err)
	assert.Len(t, all, 15)

	one, err := selectChecks([]string{"debitos-automaticos"})
	require.NoError(t, err)
	require.Len(t, one, 5)
	assert.Equal(t, "debitos-automaticos-list-unauthorized", one[0].Name)

	_, err = selectChecks([]string{"nope"})
	assert.Error(t, err)
}

func TestWatchedFiles(t *testing.T) {
	configFlag, envFileFlag = "", ""
	files := watchedFiles()
	assert.Len(t, files, len(config.ConfigFilenames)+1)
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), f)
	}

	configFlag, envFileFlag = "custom.yaml", "custom.env"
	t.Cleanup(func() { configFlag, envFileFlag = "", "" })
	files = watchedFiles()
	require.Len(t, files, 2)
	assert.Equal(t, "custom.yaml", filepath.Base(files[0]))
	assert.Equal(t, "custom.env", filepath.Base(files[1]))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"read", "write"}, splitList(" read, ,write "))
	assert.Nil(t, splitList(""))
}

func TestSmokeCommand_ResolvesHeaderPlaceholders(t *testing.T) {
	var tenant, source atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant.Store(r.Header.Get("X-Tenant"))
		source.Store(r.Header.Get("X-Source"))
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	path := writeConfig(t, `
environment: dev
baseUrl: `+server.URL+`
headers:
  X-Tenant: "{{tenant}}"
  X-Source: "{{$GASTOSQA_TEST_SOURCE}}"
variables:
  tenant: acme
`)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GASTOSQA_TEST_SOURCE=nightly\n"), 0644))

	_, _, err := execute(t, "smoke", "gastos-unicos", "-n", "gastos-unicos-list-unauthorized",
		"--config", path, "--env-file", envFile)
	require.NoError(t, err)
	assert.Equal(t, "acme", tenant.Load())
	assert.Equal(t, "nightly", source.Load())
}

// lockedBuffer is written by the watch loop while the test reads it
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func watchCommand() (*cobra.Command, *lockedBuffer, *lockedBuffer) {
	var stdout, stderr lockedBuffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr
}

func TestWatchAndRerun_StopsWhenCancelled(t *testing.T) {
	resetFlags(t)
	configFlag = writeConfig(t, "environment: dev\nbaseUrl: http://localhost:9000\n")
	envFileFlag = emptyEnvFile(t)

	cmd, _, stderr := watchCommand()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, watchAndRerun(ctx, cmd, nil, nil))
	assert.Contains(t, stderr.String(), "Watching for changes")
	assert.NotContains(t, stderr.String(), "Re-running checks")
}

func TestWatchAndRerun_RerunsWithEditedEnvFile(t *testing.T) {
	resetFlags(t)
	t.Setenv(config.EnvBaseURL, "")

	first := unauthorizedAPI(t)
	var hits atomic.Int32
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(second.Close)

	dir := t.TempDir()
	configFlag = filepath.Join(dir, "gastosqa.yaml")
	require.NoError(t, os.WriteFile(configFlag, []byte("environment: dev\nbaseUrl: "+first.URL+"\n"), 0644))
	envFileFlag = filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFileFlag, nil, 0644))

	cmd, stdout, stderr := watchCommand()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := smoke.EntityChecks(expenses.GastosUnicos)[:1]
	done := make(chan error, 1)
	go func() { done <- watchAndRerun(ctx, cmd, checks, nil) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "Watching for changes")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(envFileFlag, []byte("GASTOSQA_BASE_URL="+second.URL+"\n"), 0644))

	require.Eventually(t, func() bool { return hits.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop after cancel")
	}
	assert.Contains(t, stderr.String(), "Re-running checks")
	assert.Contains(t, stdout.String(), second.URL)
}
