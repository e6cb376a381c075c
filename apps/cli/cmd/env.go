package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
	"github.com/abdul-hamid-achik/gastosqa/packages/http"
	"github.com/abdul-hamid-achik/gastosqa/packages/scaffold"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment a run would target",
	Long: `Resolve the configuration exactly as 'gastosqa smoke' does and print the
environment name, base URL and auth source without sending any request.

Examples:
  gastosqa env
  gastosqa env --env staging
  GASTOSQA_BASE_URL=http://localhost:9000 gastosqa env`,
	Args: cobra.NoArgs,
	RunE: envCommand,
}

func envCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scaffold.PrintBanner(out, cfg.CurrentEnvironment(), cfg.BaseURL())

	authType := cfg.Auth.Type
	if authType == "" {
		authType = config.AuthStatic
	}
	if authType == config.AuthStatic && cfg.Auth.Token == "" {
		authType += " (placeholder)"
	}
	fmt.Fprintf(out, "  Auth:        %s\n", authType)
	fmt.Fprintf(out, "  Log policy:  %s\n", cfg.LogPolicy)
	fmt.Fprintf(out, "  Timeout:     %s\n", cfg.RequestTimeout())
	if cfg.RateLimit > 0 {
		fmt.Fprintf(out, "  Rate limit:  %g req/s\n", cfg.RateLimit)
	}
	if cfg.Proxy != "" {
		fmt.Fprintf(out, "  Proxy:       %s\n", cfg.Proxy)
	}
	names := make([]string, 0, len(cfg.Headers))
	for name := range cfg.Headers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		value := cfg.Headers[name]
		if http.IsSensitiveHeader(name) {
			value = "[redacted]"
		}
		fmt.Fprintf(out, "  Header:      %s: %s\n", name, value)
	}
	return nil
}
