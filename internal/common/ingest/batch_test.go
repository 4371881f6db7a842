package ingest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clock "k8s.io/utils/clock/testing"

	"github.com/jobartifacts/artifactingester/internal/common/artifactcontext"
)

const (
	defaultMaxItems   = 3
	defaultMaxTimeOut = 5 * time.Second
)

type resultHolder struct {
	result [][]int
	mutex  sync.Mutex
}

func newResultHolder() *resultHolder {
	return &resultHolder{result: make([][]int, 0)}
}

func (r *resultHolder) add(a []int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.result = append(r.result, a)
}

func (r *resultHolder) get() [][]int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.result
}

func TestBatch_MaxItems(t *testing.T) {
	ctx, cancel := artifactcontext.WithTimeout(artifactcontext.Background(), 5*time.Second)
	defer cancel()
	testClock := clock.NewFakeClock(time.Now())
	inputChan := make(chan int)
	result := newResultHolder()
	batcher := NewBatcher[int](inputChan, defaultMaxItems, defaultMaxTimeOut, result.add)
	batcher.clock = testClock

	go batcher.Run(ctx)

	// Post 6 items on the input channel without advancing the clock
	// And we should get two full batches
	for i := 1; i <= 6; i++ {
		inputChan <- i
	}
	assert.Eventually(t, func() bool { return len(result.get()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}}, result.get())
}

func TestBatch_Time(t *testing.T) {
	ctx, cancel := artifactcontext.WithTimeout(artifactcontext.Background(), 5*time.Second)
	defer cancel()
	testClock := clock.NewFakeClock(time.Now())
	inputChan := make(chan int)
	result := newResultHolder()
	batcher := NewBatcher[int](inputChan, defaultMaxItems, defaultMaxTimeOut, result.add)
	batcher.clock = testClock

	go batcher.Run(ctx)

	inputChan <- 1
	inputChan <- 2
	assert.Eventually(t, testClock.HasWaiters, time.Second, time.Millisecond)
	testClock.Step(5 * time.Second)
	assert.Eventually(t, func() bool { return len(result.get()) == 1 }, time.Second, 10*time.Millisecond)

	inputChan <- 3
	inputChan <- 4
	assert.Eventually(t, testClock.HasWaiters, time.Second, time.Millisecond)
	testClock.Step(5 * time.Second)
	assert.Eventually(t, func() bool { return len(result.get()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, result.get())
}

func TestBatch_FlushesOnClose(t *testing.T) {
	inputChan := make(chan int)
	result := newResultHolder()
	batcher := NewBatcher[int](inputChan, defaultMaxItems, defaultMaxTimeOut, result.add)
	batcher.clock = clock.NewFakeClock(time.Now())

	done := make(chan struct{})
	go func() {
		batcher.Run(artifactcontext.Background())
		close(done)
	}()
	inputChan <- 1
	close(inputChan)
	<-done
	assert.Equal(t, [][]int{{1}}, result.get())
}
