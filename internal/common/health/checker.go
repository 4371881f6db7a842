package health

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Checker is implemented by anything whose health can be reported on /health.
type Checker interface {
	Check() error
}

// FuncChecker adapts a plain function to the Checker interface.
type FuncChecker func() error

func (f FuncChecker) Check() error {
	return f()
}

// StartupCompleteChecker reports unhealthy until MarkComplete has been called.
type StartupCompleteChecker struct {
	complete atomic.Bool
}

func (s *StartupCompleteChecker) MarkComplete() {
	s.complete.Store(true)
}

func (s *StartupCompleteChecker) Check() error {
	if s.complete.Load() {
		return nil
	}
	return errors.New("startup is not complete")
}
