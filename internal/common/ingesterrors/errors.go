// Package ingesterrors contains generic errors returned by the ingester and its read API.
// The HTTP handlers look for the error types defined in this file and set the response status accordingly.
//
// If multiple errors occur in some function (e.g., several records in one submission fail to decode), that
// function should return an error of type multierror.Error from package
// github.com/hashicorp/go-multierror that encapsulates those individual errors.
package ingesterrors

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// ErrNotFound is a generic error to be returned whenever some resource isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string
	Value   string
	Message string
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "count"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrMaxRetriesExceeded is returned when a retried operation gives up.
type ErrMaxRetriesExceeded struct {
	Message   string
	LastError error
}

func (err *ErrMaxRetriesExceeded) Error() string {
	if err.Message != "" {
		return fmt.Sprintf("exceeded maximum number of retries; %s; last error was: %v", err.Message, err.LastError)
	}
	return fmt.Sprintf("exceeded maximum number of retries; last error was: %v", err.LastError)
}

func (err *ErrMaxRetriesExceeded) Unwrap() error {
	return err.LastError
}

// StatusFromError maps error types to HTTP status codes.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	{
		var e *ErrNotFound
		if errors.As(err, &e) {
			return http.StatusNotFound
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// IsNetworkError returns true if err is a network error, i.e. one where retrying may help.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsRetryablePostgresError returns true if err is a postgres error that's likely to be resolved by retrying,
// e.g. a dropped connection or a serialization failure.
func IsRetryablePostgresError(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.Timeout(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsTransactionRollback(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code)
	}
	return false
}

// IsRetryableRedisError is largely taken from https://github.com/go-redis/redis/blob/master/error.go#L28
func IsRetryableRedisError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if s == "ERR max number of clients reached" {
		return true
	}
	if strings.HasPrefix(s, "LOADING ") {
		return true
	}
	if strings.HasPrefix(s, "READONLY ") {
		return true
	}
	if strings.HasPrefix(s, "CLUSTERDOWN ") {
		return true
	}
	if strings.HasPrefix(s, "TRYAGAIN ") {
		return true
	}
	return false
}
