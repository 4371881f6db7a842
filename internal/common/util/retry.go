package util

import (
	"time"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

// RetryUntilSuccess calls performAction until it returns nil or ctx is done.
// onError is invoked with every failure; it is where callers log and back off.
func RetryUntilSuccess(ctx *artifactcontext.Context, performAction func() error, onError func(error)) {
	for ctx.Err() == nil {
		err := performAction()
		if err == nil {
			return
		}
		onError(err)
	}
}

// SleepWithContext blocks for d or until ctx is done, whichever comes first.
func SleepWithContext(ctx *artifactcontext.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
