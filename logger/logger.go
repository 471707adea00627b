// Package logger configures the global zerolog logger shared by every
// component, the click recorder's detached goroutines included.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Initialize sets up the global logger with console output and a
// service field so multi-service log streams stay attributable.
func Initialize() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().
		Timestamp().
		Caller().
		Str("service", "trimurl").
		Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Get returns the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}
