package logging

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	goslices "golang.org/x/exp/slices"
)

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Config defines command-line logging configuration.
type Config struct {
	// Log level, e.g. INFO, ERROR etc
	Level string `mapstructure:"level"`
	// Logging format, either text (message only) or json
	Format string `mapstructure:"format"`
}

// ConfigureCommandLineLogging sets up the standard logrus logger for interactive use: plain messages written to out.
// Stdout is kept free for the command's own output, so callers normally pass os.Stderr.
func ConfigureCommandLineLogging(out io.Writer) {
	log.SetFormatter(&CommandLineFormatter{})
	log.SetOutput(out)
	log.SetLevel(log.InfoLevel)
}

// Apply validates c and applies it to the standard logger. Empty fields leave the current setting alone.
func Apply(c Config) error {
	if c.Level != "" {
		level, err := parseLogLevel(c.Level)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}
	if c.Format != "" {
		if err := validateLogFormat(c.Format); err != nil {
			return err
		}
		if c.Format == "json" {
			log.SetFormatter(&log.JSONFormatter{})
		} else {
			log.SetFormatter(&CommandLineFormatter{})
		}
	}
	return nil
}

func validateLogFormat(f string) error {
	_, ok := validLogFormats[f]
	if !ok {
		formats := maps.Keys(validLogFormats)
		goslices.Sort(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}

func parseLogLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "panic":
		return log.PanicLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	default:
		return log.InfoLevel, errors.Errorf("unknown level: %s", level)
	}
}
