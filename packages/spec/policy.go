package spec

import (
	"fmt"
	"sync"
)

// LogDetail selects which parts of a request or response are logged
type LogDetail int

const (
	LogNone LogDetail = iota
	LogHeaders
	LogBody
	LogAll
)

func (d LogDetail) String() string {
	switch d {
	case LogNone:
		return "none"
	case LogHeaders:
		return "headers"
	case LogBody:
		return "body"
	case LogAll:
		return "all"
	default:
		return fmt.Sprintf("LogDetail(%d)", int(d))
	}
}

func (d LogDetail) headers() bool { return d == LogHeaders || d == LogAll }
func (d LogDetail) body() bool    { return d == LogBody || d == LogAll }

// LogPolicy decides when the detail configured on a spec is written
type LogPolicy int

const (
	// PolicyAlways logs every exchange
	PolicyAlways LogPolicy = iota
	// PolicyOnFailure logs an exchange only when its validation failed
	PolicyOnFailure
	// PolicyNever disables exchange logging
	PolicyNever
)

func (p LogPolicy) String() string {
	switch p {
	case PolicyAlways:
		return "all"
	case PolicyOnFailure:
		return "on-failure"
	case PolicyNever:
		return "none"
	default:
		return fmt.Sprintf("LogPolicy(%d)", int(p))
	}
}

// ParseLogPolicy accepts the config file spellings: all, on-failure, none
func ParseLogPolicy(s string) (LogPolicy, error) {
	switch s {
	case "all", "always":
		return PolicyAlways, nil
	case "", "on-failure":
		return PolicyOnFailure, nil
	case "none", "never":
		return PolicyNever, nil
	default:
		return PolicyAlways, fmt.Errorf("unknown log policy: %s", s)
	}
}

var (
	policyMu sync.RWMutex
	policy   = PolicyAlways
)

// Configure sets the process-wide logging policy
func Configure(p LogPolicy) {
	policyMu.Lock()
	defer policyMu.Unlock()
	policy = p
}

// CurrentPolicy returns the process-wide logging policy
func CurrentPolicy() LogPolicy {
	policyMu.RLock()
	defer policyMu.RUnlock()
	return policy
}

// ShouldLog reports whether an exchange with the given outcome is logged
// under the current policy
func ShouldLog(failed bool) bool {
	switch CurrentPolicy() {
	case PolicyAlways:
		return true
	case PolicyOnFailure:
		return failed
	default:
		return false
	}
}
