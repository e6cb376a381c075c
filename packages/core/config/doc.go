// Package config handles configuration loading and management for gastosqa.
//
// It provides functionality for:
//   - Loading configuration from gastosqa.yaml or gastosqa.yml files
//   - Loading .env files before environment overrides are applied
//   - Default configuration values
//   - Environment-specific overrides
//   - Validation of the resolved configuration
//
// A loaded *Config is read-only: it is built once per run and shared by
// reference with every test suite through the Provider interface.
package config
