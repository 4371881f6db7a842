package artifactcontext

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Context carries a logger alongside a go context so that log fields such as the project travel with the
// request through the loader and its stores.
type Context struct {
	context.Context
	Log *logrus.Entry
}

// Background is context.Background() with the standard logger.
func Background() *Context {
	return New(context.Background(), logrus.NewEntry(logrus.StandardLogger()))
}

// FromContext returns ctx itself if it is already a *Context, otherwise wraps it with the standard logger.
func FromContext(ctx context.Context) *Context {
	if c, ok := ctx.(*Context); ok {
		return c
	}
	return New(ctx, logrus.NewEntry(logrus.StandardLogger()))
}

func New(ctx context.Context, log *logrus.Entry) *Context {
	return &Context{Context: ctx, Log: log}
}

func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	c, cancel := context.WithCancel(parent.Context)
	return parent.derive(c), cancel
}

func WithDeadline(parent *Context, d time.Time) (*Context, context.CancelFunc) {
	c, cancel := context.WithDeadline(parent.Context, d)
	return parent.derive(c), cancel
}

func WithTimeout(parent *Context, timeout time.Duration) (*Context, context.CancelFunc) {
	return WithDeadline(parent, time.Now().Add(timeout))
}

func WithLogField(parent *Context, key string, val interface{}) *Context {
	return New(parent.Context, parent.Log.WithField(key, val))
}

func WithLogFields(parent *Context, fields logrus.Fields) *Context {
	return New(parent.Context, parent.Log.WithFields(fields))
}

// WithProject tags every log line written through the returned context with the project.
func WithProject(parent *Context, project string) *Context {
	return WithLogField(parent, "project", project)
}

// ErrGroup is errgroup.WithContext keeping the logger of ctx.
func ErrGroup(ctx *Context) (*errgroup.Group, *Context) {
	group, goctx := errgroup.WithContext(ctx)
	return group, ctx.derive(goctx)
}

func (c *Context) derive(ctx context.Context) *Context {
	return New(ctx, c.Log)
}
