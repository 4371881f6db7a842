package ingest

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
	"github.com/jobartifacts/artifactingester/internal/common/ingesterrors"
	"github.com/jobartifacts/artifactingester/internal/common/logging"
	"github.com/jobartifacts/artifactingester/internal/common/util"
)

// RetryPolicy controls how WithRetry backs off between attempts.
type RetryPolicy struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Zero means retry until the context is done.
	MaxAttempts int
}

// WithRetry runs action until it succeeds, returns a non-retryable error, exhausts the policy's attempts
// or ctx is done. action reports whether its error is worth retrying.
func WithRetry(ctx *artifactcontext.Context, policy RetryPolicy, action func() (bool, error)) error {
	backOff := policy.InitialBackoff
	var lastErr error
	for attempt := 1; policy.MaxAttempts == 0 || attempt <= policy.MaxAttempts; attempt++ {
		retry, err := action()
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}
		logging.WithStacktrace(ctx.Log, err).Warnf("Retryable error encountered, will wait for %s before retrying", backOff)
		util.SleepWithContext(ctx, backOff)
		backOff = min(2*backOff, policy.MaxBackoff)
	}
	return errors.WithStack(&ingesterrors.ErrMaxRetriesExceeded{
		Message:   "giving up",
		LastError: lastErr,
	})
}
