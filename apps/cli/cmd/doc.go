// Package cmd implements the gastosqa CLI commands using Cobra.
//
// Available commands:
//   - smoke: Run the expense endpoint checks against an environment
//   - env: Show the environment and base URL a run would target
//   - init: Write an example gastosqa.yaml
//   - completion: Generate shell completion scripts
//   - version: Show gastosqa version information
//
// Configuration comes from gastosqa.yaml, a .env file and GASTOSQA_*
// variables; flags override all of them.
package cmd
