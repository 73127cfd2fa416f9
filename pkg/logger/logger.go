package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// log is created once and only reconfigured afterwards, so it is safe to use
// from several goroutines without calling Init first
var log = logrus.New()

func init() {
	configure()
}

// Init reconfigures the logger from LOG_LEVEL and LOG_FORMAT
func Init() {
	configure()
}

func configure() {
	// Logs go to stderr so stats written to stdout stay machine readable
	log.SetOutput(os.Stderr)
	log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))

	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

func parseLevel(value string) logrus.Level {
	switch strings.ToLower(value) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() *logrus.Logger {
	return log
}

// SetOutput redirects log output, mainly for tests
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// SetVerbose switches the logger to debug level
func SetVerbose(verbose bool) {
	if verbose {
		GetLogger().SetLevel(logrus.DebugLevel)
	}
}

// WithField adds a field to the logger
func WithField(key string, value interface{}) *logrus.Entry {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the logger
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

// WithError adds an error field to the logger
func WithError(err error) *logrus.Entry {
	return GetLogger().WithError(err)
}

// WithRepository returns an entry scoped to one repository
func WithRepository(name string) *logrus.Entry {
	return GetLogger().WithField("repository", name)
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

// Info logs an info message
func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

// Infof logs a formatted info message
func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}
