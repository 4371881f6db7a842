package logging

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterFor(t *testing.T) {
	tests := map[string]struct {
		format    string
		expected  log.Formatter
		expectErr bool
	}{
		"default": {format: "", expected: &log.TextFormatter{ForceColors: true, FullTimestamp: true}},
		"text":    {format: "text", expected: &log.TextFormatter{ForceColors: true, FullTimestamp: true}},
		"json":    {format: "JSON", expected: &log.JSONFormatter{}},
		"unknown": {format: "xml", expectErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			formatter, err := formatterFor(tc.format)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, formatter)
		})
	}
}

func TestConfigureLogging_InvalidLevel(t *testing.T) {
	err := ConfigureLogging(TextFormat, "loud")
	assert.Error(t, err)
}

func TestWithStacktrace(t *testing.T) {
	err := errors.WithMessage(errors.New("boom"), "storing artifacts")
	entry := WithStacktrace(log.NewEntry(log.New()), err)

	assert.Equal(t, err, entry.Data[log.ErrorKey])
	assert.NotNil(t, entry.Data[Stacktrace])
}

func TestWithStacktrace_NoStack(t *testing.T) {
	err := &plainError{}
	entry := WithStacktrace(log.NewEntry(log.New()), err)

	assert.Equal(t, err, entry.Data[log.ErrorKey])
	_, ok := entry.Data[Stacktrace]
	assert.False(t, ok)
}

func TestCommandLineFormatter(t *testing.T) {
	entry := log.NewEntry(log.New())
	entry.Message = "loaded 3 artifacts"
	out, err := (&CommandLineFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "loaded 3 artifacts\n", string(out))

	withErr := entry.WithError(errors.New("redis down"))
	withErr.Message = "loaded 3 artifacts"
	out, err = (&CommandLineFormatter{}).Format(withErr)
	require.NoError(t, err)
	assert.Equal(t, "loaded 3 artifacts: redis down\n", string(out))
}

type plainError struct{}

func (*plainError) Error() string { return "plain" }

func TestExtractStack_FollowsUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("storing artifacts: %w", inner)

	assert.Equal(t, inner.(stackTracer).StackTrace(), ExtractStack(err))
}
