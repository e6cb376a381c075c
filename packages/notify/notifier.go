// Package notify posts smoke run summaries to chat webhooks.
package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/gastosqa/packages/smoke"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when checks fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when checks pass
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends on failure and on the first green run after one
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a --notify-on value
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch on := NotifyOn(s); on {
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return on, nil
	case "":
		return NotifyFailure, nil
	default:
		return "", fmt.Errorf("unknown notify-on value: %s (valid: always, failure, success, recovery)", s)
	}
}

// RunSummary is what a notifier reports about one run
type RunSummary struct {
	Environment   string        `json:"environment"`
	BaseURL       string        `json:"base_url"`
	TotalChecks   int           `json:"total_checks"`
	PassedChecks  int           `json:"passed_checks"`
	FailedChecks  int           `json:"failed_checks"`
	SkippedChecks int           `json:"skipped_checks"`
	Duration      time.Duration `json:"duration"`
	FailedResults []FailedCheck `json:"failed_results,omitempty"`
	IsRecovery    bool          `json:"is_recovery,omitempty"`
}

// FailedCheck names a failed check and its recorded errors
type FailedCheck struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors,omitempty"`
}

// Summarize converts a smoke run into a notification summary
func Summarize(result *smoke.RunResult) *RunSummary {
	s := &RunSummary{
		Environment:   result.Environment,
		BaseURL:       result.BaseURL,
		TotalChecks:   len(result.Results),
		PassedChecks:  result.Passed,
		FailedChecks:  result.Failed,
		SkippedChecks: result.Skipped,
		Duration:      result.Duration,
	}
	for _, r := range result.Results {
		if r.Passed || r.Skipped {
			continue
		}
		fc := FailedCheck{Name: r.Name}
		for _, err := range r.Errors {
			fc.Errors = append(fc.Errors, err.Error())
		}
		s.FailedResults = append(s.FailedResults, fc)
	}
	return s
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about a run
	Notify(summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager fans a summary out to its notifiers according to its policy.
// It remembers the previous outcome so watch mode can report recoveries.
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true,
	}
}

// Notify sends notifications based on the configured policy
func (m *Manager) Notify(summary *RunSummary) error {
	shouldNotify := false
	currentSuccess := summary.FailedChecks == 0

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess

	if !shouldNotify {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
