package scaffold

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// PrintBanner writes the environment under test
func PrintBanner(w io.Writer, environment, baseURL string) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(w, "%s\n", bold("gastosqa"))
	fmt.Fprintf(w, "  Environment: %s\n", cyan(environment))
	fmt.Fprintf(w, "  Base URL:    %s\n\n", cyan(baseURL))
}
