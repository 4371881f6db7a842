package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	TextFormat = "text"
	JsonFormat = "json"
)

// ConfigureLogging sets up the standard logrus logger used by every binary in this repository.
// Log lines are written to stdout and every line is counted per level by a Prometheus hook.
func ConfigureLogging(format string, level string) error {
	formatter, err := formatterFor(format)
	if err != nil {
		return err
	}
	lvl := log.InfoLevel
	if level != "" {
		lvl, err = log.ParseLevel(level)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	log.SetFormatter(formatter)
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)
	log.AddHook(prometheusHook())
	return nil
}

// ConfigureCommandLineLogging sets up logging for interactive tools, printing only the message.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&CommandLineFormatter{})
	log.SetOutput(os.Stdout)
}

func formatterFor(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", TextFormat:
		return &log.TextFormatter{ForceColors: true, FullTimestamp: true}, nil
	case JsonFormat:
		return &log.JSONFormatter{}, nil
	default:
		return nil, errors.Errorf("unknown log format %q; expected %q or %q", format, TextFormat, JsonFormat)
	}
}

// CommandLineFormatter prints the bare message, followed by the error of the entry if there is one.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Message)
	if err, ok := entry.Data[log.ErrorKey]; ok {
		b.WriteString(": ")
		b.WriteString(fmt.Sprint(err))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
