package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMultiChecker(t *testing.T) {
	healthy := FuncChecker(func() error { return nil })
	postgresDown := FuncChecker(func() error { return errors.New("postgres unreachable") })
	redisDown := FuncChecker(func() error { return errors.New("redis unreachable") })

	assert.NoError(t, NewMultiChecker().Check())
	assert.NoError(t, NewMultiChecker(healthy, healthy).Check())

	err := NewMultiChecker(healthy, postgresDown, redisDown).Check()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "postgres unreachable")
	assert.Contains(t, err.Error(), "redis unreachable")
}

func TestStartupCompleteChecker(t *testing.T) {
	checker := &StartupCompleteChecker{}
	assert.Error(t, checker.Check())
	checker.MarkComplete()
	assert.NoError(t, checker.Check())
}

func TestHealthCheckHttpHandler(t *testing.T) {
	tests := map[string]struct {
		checker      Checker
		expectedCode int
		expectedBody string
	}{
		"healthy": {
			checker:      FuncChecker(func() error { return nil }),
			expectedCode: http.StatusNoContent,
		},
		"unhealthy": {
			checker:      FuncChecker(func() error { return errors.New("startup is not complete") }),
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: "startup is not complete",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			SetupHttpMux(mux, tc.checker)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.Equal(t, tc.expectedBody, rec.Body.String())
		})
	}
}
