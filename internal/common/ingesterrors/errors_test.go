package ingesterrors

import (
	"context"
	"io"
	"net/http"
	"syscall"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"ErrNotFound":                     {&ErrNotFound{}, http.StatusNotFound},
		"ErrInvalidArgument":              {&ErrInvalidArgument{}, http.StatusBadRequest},
		"pkg.Error => ErrNotFound":        {errors.WithMessage(&ErrNotFound{}, "foo"), http.StatusNotFound},
		"pkg.Error => ErrInvalidArgument": {errors.WithMessage(&ErrInvalidArgument{}, "foo"), http.StatusBadRequest},
		"deadline":                        {errors.WithStack(context.DeadlineExceeded), http.StatusGatewayTimeout},
		"pkg.Error":                       {errors.New("foo"), http.StatusInternalServerError},
		"nil":                             {nil, http.StatusOK},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFromError(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t,
		`value "abc" is invalid for field "count"; must be an integer`,
		(&ErrInvalidArgument{Name: "count", Value: "abc", Message: "must be an integer"}).Error())
	assert.Equal(t,
		`resource "guid-1" of type "job" does not exist`,
		(&ErrNotFound{Type: "job", Value: "guid-1"}).Error())

	lastErr := errors.New("boom")
	maxRetries := &ErrMaxRetriesExceeded{Message: "gave up", LastError: lastErr}
	assert.ErrorIs(t, maxRetries, lastErr)
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(io.EOF))
	assert.True(t, IsNetworkError(errors.WithStack(syscall.ECONNREFUSED)))
	assert.False(t, IsNetworkError(errors.New("syntax error")))
	assert.False(t, IsNetworkError(nil))
}

func TestIsRetryablePostgresError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"connection failure":    {&pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		"serialization failure": {errors.WithStack(&pgconn.PgError{Code: pgerrcode.SerializationFailure}), true},
		"too many connections":  {&pgconn.PgError{Code: pgerrcode.TooManyConnections}, true},
		"admin shutdown":        {&pgconn.PgError{Code: pgerrcode.AdminShutdown}, true},
		"unique violation":      {&pgconn.PgError{Code: pgerrcode.UniqueViolation}, false},
		"plain error":           {errors.New("foo"), false},
		"nil":                   {nil, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryablePostgresError(tc.err))
		})
	}
}

func TestIsRetryableRedisError(t *testing.T) {
	assert.True(t, IsRetryableRedisError(errors.New("LOADING Redis is loading the dataset in memory")))
	assert.True(t, IsRetryableRedisError(errors.New("ERR max number of clients reached")))
	assert.False(t, IsRetryableRedisError(errors.New("WRONGTYPE Operation against a key")))
	assert.False(t, IsRetryableRedisError(nil))
}
