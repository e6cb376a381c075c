package cmd

// Exit codes for gastosqa CLI
const (
	// ExitSuccess indicates all checks passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more checks failed
	ExitTestFailure = 1

	// ExitConfigError indicates a configuration or auth setup error
	ExitConfigError = 3

	// ExitNetworkError indicates the API could not be reached at all
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
