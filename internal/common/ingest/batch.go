package ingest

import (
	"time"

	"k8s.io/utils/clock"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

// Batcher groups values read from input and passes each group to callback. A group is emitted once it holds
// maxItems values or maxTimeout after collection of it started, whichever is first. Empty groups are never emitted.
type Batcher[T any] struct {
	input      chan T
	maxItems   int
	maxTimeout time.Duration
	clock      clock.Clock
	callback   func([]T)
}

func NewBatcher[T any](input chan T, maxItems int, maxTimeout time.Duration, callback func([]T)) *Batcher[T] {
	return &Batcher[T]{
		input:      input,
		maxItems:   maxItems,
		maxTimeout: maxTimeout,
		clock:      clock.RealClock{},
		callback:   callback,
	}
}

// Run batches until ctx is done or input is closed. A partial group is flushed when input closes but dropped when
// ctx is done.
func (b *Batcher[T]) Run(ctx *artifactcontext.Context) {
	for {
		batch, more := b.collect(ctx)
		if len(batch) > 0 {
			b.callback(batch)
		}
		if !more {
			return
		}
	}
}

func (b *Batcher[T]) collect(ctx *artifactcontext.Context) ([]T, bool) {
	batch := make([]T, 0, b.maxItems)
	deadline := b.clock.After(b.maxTimeout)
	for {
		select {
		case <-ctx.Done():
			ctx.Log.Info("Batcher: context is done")
			return nil, false
		case <-deadline:
			return batch, true
		case value, ok := <-b.input:
			if !ok {
				return batch, false
			}
			batch = append(batch, value)
			if len(batch) >= b.maxItems {
				return batch, true
			}
		}
	}
}
