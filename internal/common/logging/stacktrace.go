package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Stacktrace is the log field holding the stack trace of a logged error.
const Stacktrace = "stacktrace"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// WithStacktrace adds err and, if one was recorded, its innermost pkg/errors stack trace to logger.
func WithStacktrace(logger *logrus.Entry, err error) *logrus.Entry {
	logger = logger.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		logger = logger.WithField(Stacktrace, stack)
	}
	return logger
}

// ExtractStack returns the stack trace recorded closest to the root cause of err, or nil.
// Both Cause and Unwrap chains are followed.
func ExtractStack(err error) errors.StackTrace {
	var stack errors.StackTrace
	for err != nil {
		if tracer, ok := err.(stackTracer); ok {
			stack = tracer.StackTrace()
		}
		err = next(err)
	}
	return stack
}

func next(err error) error {
	switch e := err.(type) {
	case interface{ Cause() error }:
		return e.Cause()
	case interface{ Unwrap() error }:
		return e.Unwrap()
	default:
		return nil
	}
}
