// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/warp/paycheck-planner/config"
)

// Log is the global logger instance.
var Log = logrus.New()

// Init applies level and format from the configuration. Production-like
// environments log JSON; everything else logs text.
func Init(cfg *config.AppConfig) {
	Configure(Log, cfg, os.Stdout)

	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
	Log.Debugf("Log format set for environment: %s", cfg.Environment)
}

// Configure sets up any logger the way Init sets up the global one.
func Configure(l *logrus.Logger, cfg *config.AppConfig, out io.Writer) {
	l.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		l.Warnf("Invalid log level '%s', defaulting to 'info'", cfg.LogLevel)
	} else {
		l.SetLevel(level)
	}

	if cfg.IsProduction() {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// Component returns an entry tagged with a component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
