package artifactcontext

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var defaultLogger = logrus.NewEntry(logrus.New()).WithField("foo", "bar")

func TestNew(t *testing.T) {
	ctx := New(context.Background(), defaultLogger)
	require.Equal(t, defaultLogger, ctx.Log)
	require.Equal(t, context.Background(), ctx.Context)
}

func TestBackground(t *testing.T) {
	ctx := Background()
	require.Equal(t, ctx.Context, context.Background())
}

func TestFromContext(t *testing.T) {
	wrapped := New(context.Background(), defaultLogger)
	require.Same(t, wrapped, FromContext(wrapped))

	plain := FromContext(context.TODO())
	require.Equal(t, context.TODO(), plain.Context)
	require.NotNil(t, plain.Log)
}

func TestWithLogField(t *testing.T) {
	ctx := WithLogField(Background(), "project", "mozilla-central")
	require.Equal(t, context.Background(), ctx.Context)
	require.Equal(t, logrus.Fields{"project": "mozilla-central"}, ctx.Log.Data)
}

func TestWithProject(t *testing.T) {
	ctx := WithProject(WithLogField(Background(), "guid", "abc"), "autoland")
	require.Equal(t, logrus.Fields{"guid": "abc", "project": "autoland"}, ctx.Log.Data)
}

func TestWithCancel_KeepsLogger(t *testing.T) {
	parent := WithProject(Background(), "try")
	ctx, cancel := WithCancel(parent)
	require.Same(t, parent.Log, ctx.Log)
	cancel()
	<-ctx.Done()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWithLogFields(t *testing.T) {
	ctx := WithLogFields(Background(), logrus.Fields{"project": "try", "guid": "abc"})
	require.Equal(t, context.Background(), ctx.Context)
	require.Equal(t, logrus.Fields{"project": "try", "guid": "abc"}, ctx.Log.Data)
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(Background(), 100*time.Millisecond)
	defer cancel()
	testDeadline(t, ctx)
}

func TestWithDeadline(t *testing.T) {
	ctx, cancel := WithDeadline(Background(), time.Now().Add(100*time.Millisecond))
	defer cancel()
	testDeadline(t, ctx)
}

func TestErrGroup_KeepsLogger(t *testing.T) {
	parent := WithLogField(Background(), "project", "try")
	g, ctx := ErrGroup(parent)
	require.Equal(t, parent.Log, ctx.Log)
	g.Go(func() error { return nil })
	require.NoError(t, g.Wait())
}

func testDeadline(t *testing.T, c *Context) {
	t.Helper()
	d := quiescent(t)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		t.Fatalf("context not timed out after %v", d)
	case <-c.Done():
	}
	if e := c.Err(); e != context.DeadlineExceeded {
		t.Errorf("c.Err() == %v; want %v", e, context.DeadlineExceeded)
	}
}

func quiescent(t *testing.T) time.Duration {
	deadline, ok := t.Deadline()
	if !ok {
		return 5 * time.Second
	}

	const arbitraryCleanupMargin = 1 * time.Second
	return time.Until(deadline) - arbitraryCleanupMargin
}
