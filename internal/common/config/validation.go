package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// LogValidationErrors writes one line per invalid field, naming fields by their path below the root config struct.
func LogValidationErrors(err error) {
	if err == nil {
		return
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		log.Errorf("ConfigError: %s", err)
		return
	}
	for _, fieldErr := range validationErrors {
		field := stripPrefix(fieldErr.Namespace())
		switch fieldErr.Tag() {
		case "required", "required_if":
			log.Errorf("ConfigError: Field %s is required but was not found", field)
		default:
			log.Errorf("ConfigError: Field %s has invalid value %v: %s %s", field, fieldErr.Value(), fieldErr.Tag(), fieldErr.Param())
		}
	}
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
