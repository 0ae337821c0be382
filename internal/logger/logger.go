// Package logger builds the shared logrus instance from app configuration.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger at the given level, formatted for the
// environment: JSON in production, colored text everywhere else. An
// unparseable level falls back to info with a warning.
func NewLogger(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}
	return logger
}
