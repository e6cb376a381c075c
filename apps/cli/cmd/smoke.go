package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gastosqa/packages/auth"
	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
	"github.com/abdul-hamid-achik/gastosqa/packages/core/env"
	"github.com/abdul-hamid-achik/gastosqa/packages/expenses"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
	"github.com/abdul-hamid-achik/gastosqa/packages/logging"
	"github.com/abdul-hamid-achik/gastosqa/packages/notify"
	"github.com/abdul-hamid-achik/gastosqa/packages/output"
	"github.com/abdul-hamid-achik/gastosqa/packages/scaffold"
	"github.com/abdul-hamid-achik/gastosqa/packages/smoke"
	"github.com/abdul-hamid-achik/gastosqa/packages/spec"
)

var smokeCmd = &cobra.Command{
	Use:   "smoke [entity...]",
	Short: "Run the expense endpoint checks",
	Long: `Run the smoke checks for gastos únicos, gastos recurrentes and débitos
automáticos against the configured environment. Pass entity names to limit
the run to those endpoints.

Examples:
  gastosqa smoke
  gastosqa smoke --env staging
  gastosqa smoke gastos-unicos --bail
  gastosqa smoke --tags read -o junit --output-file report.xml
  gastosqa smoke --name "*-list*" -vv
  gastosqa smoke --watch
  gastosqa smoke --notify slack --slack-webhook $WEBHOOK --notify-on recovery`,
	ValidArgs: expenses.Names(),
	Args:      cobra.OnlyValidArgs,
	RunE:      smokeCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	nameFlag       string
	tagsFlag       string
	verboseFlag    int // 0=off, 1=-v, 2=-vv
	bailFlag       bool
	noColorFlag    bool
	outputFlag     string
	outputFileFlag string
	watchFlag      bool

	// Notification flags
	notifyFlag       string
	notifyOnFlag     string
	slackWebhookFlag string
	slackChannelFlag string
)

func init() {
	smokeCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only checks matching name pattern")
	smokeCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("GASTOSQA_TAGS", ""), "Run only checks with specified tags (comma-separated) (env: GASTOSQA_TAGS)")
	smokeCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v lists filtered checks, -vv logs every step)")
	smokeCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("GASTOSQA_BAIL", false), "Stop on first failure (env: GASTOSQA_BAIL)")
	smokeCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("GASTOSQA_NO_COLOR", false), "Disable colored output (env: GASTOSQA_NO_COLOR)")
	smokeCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("GASTOSQA_OUTPUT", "console"), "Output format: console, json, junit, tap (env: GASTOSQA_OUTPUT)")
	smokeCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("GASTOSQA_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: GASTOSQA_OUTPUT_FILE)")
	smokeCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the config and .env files and re-run on change")

	// Notification flags
	smokeCmd.Flags().StringVar(&notifyFlag, "notify", getEnvString("GASTOSQA_NOTIFY", ""), "Send a run summary to: slack (env: GASTOSQA_NOTIFY)")
	smokeCmd.Flags().StringVar(&notifyOnFlag, "notify-on", getEnvString("GASTOSQA_NOTIFY_ON", "failure"), "When to notify: always, failure, success, recovery (env: GASTOSQA_NOTIFY_ON)")
	smokeCmd.Flags().StringVar(&slackWebhookFlag, "slack-webhook", getEnvString("GASTOSQA_SLACK_WEBHOOK", ""), "Slack incoming webhook URL (env: GASTOSQA_SLACK_WEBHOOK)")
	smokeCmd.Flags().StringVar(&slackChannelFlag, "slack-channel", getEnvString("GASTOSQA_SLACK_CHANNEL", ""), "Slack channel override (env: GASTOSQA_SLACK_CHANNEL)")
}

func smokeCommand(cmd *cobra.Command, args []string) error {
	outputFlag = strings.ToLower(outputFlag)
	if !slices.Contains(output.Formats, outputFlag) {
		return withExitCode(ExitUsageError, fmt.Errorf("unknown output format: %s (valid: %s)", outputFlag, strings.Join(output.Formats, ", ")))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks, err := selectChecks(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	notifier, err := buildNotifier()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	result, err := runSmoke(ctx, cmd, checks, notifier)
	if err != nil {
		return err
	}

	if !watchFlag {
		return resultError(result)
	}
	return watchAndRerun(ctx, cmd, checks, notifier)
}

// buildNotifier returns nil when no notification service was requested
func buildNotifier() (*notify.Manager, error) {
	if notifyFlag == "" {
		return nil, nil
	}

	on, err := notify.ParseNotifyOn(notifyOnFlag)
	if err != nil {
		return nil, err
	}

	var notifiers []notify.Notifier
	for _, service := range splitList(notifyFlag) {
		switch strings.ToLower(service) {
		case "slack":
			if slackWebhookFlag == "" {
				return nil, fmt.Errorf("--slack-webhook is required when using --notify slack")
			}
			var opts []notify.SlackOption
			if slackChannelFlag != "" {
				opts = append(opts, notify.WithSlackChannel(slackChannelFlag))
			}
			notifiers = append(notifiers, notify.NewSlackNotifier(slackWebhookFlag, opts...))
		default:
			return nil, fmt.Errorf("unknown notification service: %s (valid: slack)", service)
		}
	}
	return notify.NewManager(on, notifiers...), nil
}

// selectChecks returns the checks for the named entities, or all of them
func selectChecks(names []string) ([]smoke.Check, error) {
	if len(names) == 0 {
		return smoke.DefaultChecks(), nil
	}
	var checks []smoke.Check
	for _, name := range names {
		entity, ok := expenses.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown entity: %s (valid: %s)", name, strings.Join(expenses.Names(), ", "))
		}
		checks = append(checks, smoke.EntityChecks(entity)...)
	}
	return checks, nil
}

// runSmoke builds a fresh fixture from the current configuration and runs
// the checks once, writing the report to the selected formatter.
func runSmoke(ctx context.Context, cmd *cobra.Command, checks []smoke.Check, notifier *notify.Manager) (*smoke.RunResult, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client := http.NewClient(
		http.WithTimeout(cfg.RequestTimeout()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithRateLimit(cfg.RateLimit),
		http.WithProxy(cfg.Proxy),
		http.WithMaxRedirects(cfg.GetMaxRedirects()),
		http.WithDefaultHeader("User-Agent", "gastosqa/"+version),
	)

	tokens, err := auth.FromConfig(cfg.Auth, client)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("configuring auth: %w", err))
	}

	policy, err := spec.ParseLogPolicy(cfg.LogPolicy)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	out := cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return nil, fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	formatter, err := output.New(outputFlag, out, verboseFlag > 0, noColorFlag)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}

	// machine-readable reports keep stdout to themselves
	banner := cmd.OutOrStdout()
	if outputFlag != "console" || outputFileFlag != "" {
		banner = cmd.ErrOrStderr()
	}

	level := cfg.LogLevel
	if verboseFlag > 1 {
		level = "debug"
	}
	log := logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())

	resolver := env.NewResolver()
	resolver.SetGetenv(cfg.Getenv)
	resolver.SetVariables(cfg.Variables)

	fixture := scaffold.NewFixture(cfg,
		scaffold.WithLogger(log),
		scaffold.WithTokenSource(tokens),
		scaffold.WithClient(client),
		scaffold.WithResolver(resolver),
		scaffold.WithLogPolicy(policy),
		scaffold.WithDefaultHeaders(cfg.Headers),
		scaffold.WithContext(ctx),
		scaffold.WithBanner(banner),
		scaffold.WithRun(scaffold.NewRun()),
	)

	runner := smoke.NewRunner(fixture, &smoke.Config{
		NameFilter: nameFlag,
		TagsFilter: splitList(tagsFlag),
		Bail:       bailFlag,
	})

	formatter.FormatHeader(version)
	result := runner.Run(ctx, checks)
	formatter.FormatResult(result)

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(result.Duration); err != nil {
			return result, fmt.Errorf("error writing output: %w", err)
		}
	}

	if notifier != nil {
		if err := notifier.Notify(notify.Summarize(result)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to send notification: %v\n", err)
		}
	}

	return result, nil
}

// resultError maps a finished run to the command's exit status
func resultError(result *smoke.RunResult) error {
	if result.Failed == 0 {
		return nil
	}
	if unreachable(result) {
		return withExitCode(ExitNetworkError, fmt.Errorf("%s is unreachable", result.BaseURL))
	}
	return withExitCode(ExitTestFailure, nil)
}

// unreachable reports whether no executed check ever got a response
func unreachable(result *smoke.RunResult) bool {
	if result.Passed > 0 {
		return false
	}
	for _, r := range result.Results {
		if !r.Skipped && r.Response != nil {
			return false
		}
	}
	return true
}

// watchedFiles returns the config and .env files a re-run would read
func watchedFiles() []string {
	var files []string
	if configFlag != "" {
		files = append(files, configFlag)
	} else {
		files = append(files, config.ConfigFilenames...)
	}
	if envFileFlag != "" {
		files = append(files, envFileFlag)
	} else {
		files = append(files, ".env")
	}

	for i, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			files[i] = abs
		}
	}
	return files
}

func watchAndRerun(ctx context.Context, cmd *cobra.Command, checks []smoke.Check, notifier *notify.Manager) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories so files created after startup are seen too
	watched := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, file := range watchedFiles() {
		watched[file] = true
		dir := filepath.Dir(file)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watchedDirs[dir] = true
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	rerun := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[event.Name] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerun <- name:
				default:
				}
			})

		case name := <-rerun:
			fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nRe-running checks...\n\n", name)
			if _, err := runSmoke(ctx, cmd, checks, notifier); err != nil {
				// a broken config while editing is reported, not fatal
				var ee *exitError
				if !errors.As(err, &ee) || ee.code != ExitConfigError {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}
