package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example gastosqa.yaml",
	Long: `Initialize gastosqa in the current directory.

This creates:
  - gastosqa.yaml   - Configuration file with dev, staging and prod environments
  - .env.example    - Variables that override the file at run time

Examples:
  gastosqa init
  gastosqa init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

// exampleConfig is the configuration written by init
func exampleConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{
		"X-Request-Source": "gastosqa",
	}
	cfg.Environments = map[string]*config.EnvironmentConfig{
		"dev": {
			BaseURL: config.DefaultBaseURL,
		},
		"staging": {
			BaseURL: "https://staging.example.com",
			Auth: &config.AuthConfig{
				Type:    config.AuthJWT,
				Secret:  "change-me",
				Issuer:  "gastosqa",
				Subject: "qa-bot",
				TTL:     300,
			},
		},
		"prod": {
			BaseURL:   "https://api.example.com",
			RateLimit: 2,
			Auth: &config.AuthConfig{
				Type:         config.AuthOAuth2,
				TokenURL:     "https://auth.example.com/oauth/token",
				ClientID:     "gastosqa",
				ClientSecret: "change-me",
				GrantType:    "client_credentials",
			},
		},
	}
	return cfg
}

const exampleEnvFile = `# Copy to .env; every value here wins over gastosqa.yaml
# GASTOSQA_ENV=staging
# GASTOSQA_BASE_URL=https://staging.example.com
# GASTOSQA_TOKEN=
# GASTOSQA_LOG_LEVEL=debug
# GASTOSQA_LOG_POLICY=all
# GASTOSQA_TIMEOUT=10000
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	envFile := filepath.Join(cwd, ".env.example")

	if !forceInit {
		for _, f := range []string{configFile, envFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := exampleConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(envFile, []byte(exampleEnvFile), 0644); err != nil {
		return fmt.Errorf("failed to create env example: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\ngastosqa initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'gastosqa env' to check the target, then 'gastosqa smoke'.\n")

	return nil
}
