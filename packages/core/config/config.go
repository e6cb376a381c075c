package config

import (
	"errors"
	"os"
	"time"
)

// Log policies accepted by the LogPolicy field
const (
	LogPolicyAll       = "all"
	LogPolicyOnFailure = "on-failure"
	LogPolicyNone      = "none"
	LogPolicyAlways    = "always"
	LogPolicyNever     = "never"
)

// Auth source types accepted by AuthConfig.Type
const (
	AuthStatic = "static"
	AuthJWT    = "jwt"
	AuthOAuth2 = "oauth2"
)

// ErrNoBaseURL is returned when no base URL could be resolved
var ErrNoBaseURL = errors.New("no base URL configured")

// Provider exposes the values every suite needs from the run configuration.
type Provider interface {
	CurrentEnvironment() string
	BaseURL() string
}

// Config represents the gastosqa configuration
type Config struct {
	Environment  string                        `yaml:"environment" validate:"required"`
	URL          string                        `yaml:"baseUrl" validate:"required,http_url"`
	Timeout      int                           `yaml:"timeout,omitempty" validate:"gte=0"` // milliseconds
	LogLevel     string                        `yaml:"logLevel,omitempty" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat    string                        `yaml:"logFormat,omitempty" validate:"omitempty,oneof=text json"`
	LogPolicy    string                        `yaml:"logPolicy,omitempty" validate:"omitempty,oneof=all always on-failure none never"`
	RateLimit    float64                       `yaml:"rateLimit,omitempty" validate:"gte=0"` // requests per second, 0 = unlimited
	ValidateSSL  *bool                         `yaml:"validateSSL,omitempty"`
	Proxy        string                        `yaml:"proxy,omitempty" validate:"omitempty,url"`
	MaxRedirects *int                          `yaml:"maxRedirects,omitempty" validate:"omitempty,gte=0"`
	Headers      map[string]string             `yaml:"headers,omitempty"`
	Variables    map[string]any                `yaml:"variables,omitempty"`
	Auth         AuthConfig                    `yaml:"auth,omitempty"`
	Environments map[string]*EnvironmentConfig `yaml:"environments,omitempty"`

	getenv func(string) string
}

// AuthConfig selects and configures the token source used by WithAuth
type AuthConfig struct {
	Type         string   `yaml:"type,omitempty" validate:"omitempty,oneof=static jwt oauth2"`
	Token        string   `yaml:"token,omitempty"`
	Secret       string   `yaml:"secret,omitempty" validate:"required_if=Type jwt"`
	Issuer       string   `yaml:"issuer,omitempty"`
	Subject      string   `yaml:"subject,omitempty"`
	TTL          int      `yaml:"ttl,omitempty" validate:"gte=0"` // seconds
	TokenURL     string   `yaml:"tokenUrl,omitempty" validate:"required_if=Type oauth2"`
	ClientID     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	Username     string   `yaml:"username,omitempty"`
	Password     string   `yaml:"password,omitempty"`
	GrantType    string   `yaml:"grantType,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
}

// EnvironmentConfig holds the values that vary between target environments
type EnvironmentConfig struct {
	BaseURL   string            `yaml:"baseUrl,omitempty"`
	RateLimit float64           `yaml:"rateLimit,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
	Variables map[string]any    `yaml:"variables,omitempty"`
	Auth      *AuthConfig       `yaml:"auth,omitempty"`
}

// CurrentEnvironment returns the name of the environment under test
func (c *Config) CurrentEnvironment() string {
	return c.Environment
}

// BaseURL returns the root URL of the API under test
func (c *Config) BaseURL() string {
	return c.URL
}

// Getenv looks key up the way Load did: process environment first, then the
// .env file. Configs not built by Load fall back to os.Getenv.
func (c *Config) Getenv(key string) string {
	if c.getenv == nil {
		return os.Getenv(key)
	}
	return c.getenv(key)
}

// RequestTimeout returns the per-request timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetMaxRedirects returns the redirect limit, defaulting to
// DefaultMaxRedirects. Zero disables following redirects.
func (c *Config) GetMaxRedirects() int {
	if c.MaxRedirects == nil {
		return DefaultMaxRedirects
	}
	return *c.MaxRedirects
}

// IntPtr returns a pointer to an int value
func IntPtr(i int) *int {
	return &i
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Environment != "" {
		result.Environment = other.Environment
	}
	if other.URL != "" {
		result.URL = other.URL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}
	if other.LogPolicy != "" {
		result.LogPolicy = other.LogPolicy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.MaxRedirects != nil {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Auth.Type != "" {
		result.Auth = other.Auth
	}

	result.Headers = mergeHeaders(c.Headers, other.Headers)
	result.Variables = mergeVariables(c.Variables, other.Variables)

	if len(other.Environments) > 0 {
		envs := make(map[string]*EnvironmentConfig, len(c.Environments)+len(other.Environments))
		for k, v := range c.Environments {
			envs[k] = v
		}
		for k, v := range other.Environments {
			envs[k] = v
		}
		result.Environments = envs
	}

	return &result
}

// ForEnvironment returns a copy of the config with the overrides of the named
// environment applied. Unknown names return an unchanged copy.
func (c *Config) ForEnvironment(name string) *Config {
	result := *c
	result.Environment = name

	env, ok := c.Environments[name]
	if !ok || env == nil {
		return &result
	}

	if env.BaseURL != "" {
		result.URL = env.BaseURL
	}
	if env.RateLimit > 0 {
		result.RateLimit = env.RateLimit
	}
	if env.Auth != nil {
		result.Auth = *env.Auth
	}
	result.Headers = mergeHeaders(c.Headers, env.Headers)
	result.Variables = mergeVariables(c.Variables, env.Variables)

	return &result
}

func mergeHeaders(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func mergeVariables(base, override map[string]any) map[string]any {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
