package config

const (
	// DefaultEnvironment is used when neither the file nor GASTOSQA_ENV names one
	DefaultEnvironment = "dev"
	// DefaultBaseURL points at a locally running API
	DefaultBaseURL = "http://localhost:8080"
	// DefaultTimeoutMs is the per-request timeout in milliseconds
	DefaultTimeoutMs = 30000
	// DefaultMaxRedirects is how many redirects a request follows
	DefaultMaxRedirects = 10
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Environment: DefaultEnvironment,
		URL:         DefaultBaseURL,
		Timeout:     DefaultTimeoutMs,
		LogLevel:    "info",
		LogPolicy:   LogPolicyOnFailure,
		ValidateSSL: BoolPtr(true),
		Auth: AuthConfig{
			Type: AuthStatic,
		},
	}
}
