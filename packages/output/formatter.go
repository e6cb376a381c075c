package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/gastosqa/packages/smoke"
)

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *smoke.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Formats lists the names accepted by New
var Formats = []string{"console", "json", "junit", "tap"}

// New returns the formatter for a format name writing to w
func New(format string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "junit":
		return NewJUnitFormatter(JUnitWithWriter(w)), nil
	case "tap":
		return NewTAPFormatter(TAPWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (valid: %v)", format, Formats)
	}
}

// failureMessages collects the recorded errors of a check
func failureMessages(r *smoke.CheckResult) []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
