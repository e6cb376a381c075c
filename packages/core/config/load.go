package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv
const (
	EnvEnvironment = "GASTOSQA_ENV"
	EnvBaseURL     = "GASTOSQA_BASE_URL"
	EnvToken       = "GASTOSQA_TOKEN"
	EnvLogLevel    = "GASTOSQA_LOG_LEVEL"
	EnvLogPolicy   = "GASTOSQA_LOG_POLICY"
	EnvTimeout     = "GASTOSQA_TIMEOUT"
)

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	"gastosqa.yaml",
	"gastosqa.yml",
	".gastosqa.yaml",
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigPath is an explicit config file. When empty the working
	// directory is searched for ConfigFilenames.
	ConfigPath string
	// EnvFile is an explicit .env file. When empty ./.env is loaded if present.
	EnvFile string
	// Environment overrides every other source of the environment name.
	Environment string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Load resolves the run configuration: .env file, config file, environment
// variables, explicit overrides, then the selected environment's section.
// Process variables win over the .env file, which is read on every call and
// never copied into the process environment. The result is validated and must
// not be mutated afterwards.
func Load(opts Options) (*Config, error) {
	dotenv, err := readDotEnv(opts.EnvFile)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	base := opts.Getenv
	if base == nil {
		base = os.Getenv
	}
	getenv := layerEnv(base, dotenv)
	cfg = ApplyEnv(cfg, getenv)

	if opts.Environment != "" {
		cfg.Environment = opts.Environment
	}
	cfg = cfg.ForEnvironment(cfg.Environment)

	// explicit variables win over the per-environment section
	if url := getenv(EnvBaseURL); url != "" {
		cfg.URL = url
	}
	if token := getenv(EnvToken); token != "" {
		cfg.Auth = AuthConfig{Type: AuthStatic, Token: token}
	}
	cfg.getenv = getenv

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func layerEnv(base func(string) string, dotenv map[string]string) func(string) string {
	return func(key string) string {
		if val := base(key); val != "" {
			return val
		}
		return dotenv[key]
	}
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return config, nil
}

// ApplyEnv returns a copy of cfg with GASTOSQA_* variables applied on top
func ApplyEnv(cfg *Config, getenv func(string) string) *Config {
	override := &Config{
		Environment: getenv(EnvEnvironment),
		URL:         getenv(EnvBaseURL),
		LogLevel:    getenv(EnvLogLevel),
		LogPolicy:   getenv(EnvLogPolicy),
	}
	if ms, err := strconv.Atoi(getenv(EnvTimeout)); err == nil {
		override.Timeout = ms
	}

	result := cfg.Merge(override)
	if token := getenv(EnvToken); token != "" {
		result.Auth = AuthConfig{Type: AuthStatic, Token: token}
	}
	return result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the resolved configuration
func Validate(cfg *Config) error {
	if cfg.URL == "" {
		return ErrNoBaseURL
	}
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	if path != "" {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		return vars, nil
	}

	vars, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return vars, nil
}
