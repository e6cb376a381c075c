package cmd

import (
	"os"
	"strings"

	"github.com/abdul-hamid-achik/gastosqa/packages/core/config"
)

// Flags shared by every command that talks to an environment
var (
	envFlag     string
	envFileFlag string
	configFlag  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", "", "Environment to target (env: GASTOSQA_ENV)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("GASTOSQA_ENV_FILE", ""), "Path to .env file (default: ./.env when present) (env: GASTOSQA_ENV_FILE)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("GASTOSQA_CONFIG", ""), "Path to config file (env: GASTOSQA_CONFIG)")
}

// loadConfig resolves the run configuration from the shared flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigPath:  configFlag,
		EnvFile:     envFileFlag,
		Environment: envFlag,
	})
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return cfg, nil
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
