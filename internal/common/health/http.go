package health

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Handler reports 204 while checker passes and 503 with the failure otherwise.
func Handler(checker Checker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := checker.Check()
		if err == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Warnf("Health check failed: %v", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(err.Error())); err != nil {
			log.WithError(err).Error("Failed to write health check response")
		}
	})
}

// SetupHttpMux serves checker on /health.
func SetupHttpMux(mux *http.ServeMux, checker Checker) {
	mux.Handle("/health", Handler(checker))
}
