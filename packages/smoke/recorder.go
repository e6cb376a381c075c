package smoke

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// recorder is the TestingT handed to the fixture while a check runs. Errors
// are collected; FailNow unwinds the check by panicking with the recorder,
// which run recovers.
type recorder struct {
	name   string
	failed bool
	errors []error
}

func newRecorder(name string) *recorder {
	return &recorder{name: name}
}

func (r *recorder) Errorf(format string, args ...any) {
	r.failed = true
	r.errors = append(r.errors, fmt.Errorf(format, args...))
}

func (r *recorder) FailNow() {
	r.failed = true
	panic(r)
}

func (r *recorder) Helper() {}

func (r *recorder) run(action func(*recorder)) {
	defer func() {
		if p := recover(); p != nil {
			r.failed = true
			if _, ok := p.(*recorder); ok {
				if len(r.errors) == 0 {
					r.errors = append(r.errors, errors.New("check failed with no failure message"))
				}
				return
			}
			r.errors = append(r.errors, fmt.Errorf("unexpected panic in check %s: %+v\n%s", r.name, p, string(debug.Stack())))
		}
	}()

	action(r)
}
