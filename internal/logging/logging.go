package logging

import (
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger. Debug mode switches to a
// human-readable text format and forces the debug level.
func Setup(level string, debug bool) {
	log.SetOutput(os.Stdout)

	if debug {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
		log.SetLevel(log.DebugLevel)
		return
	}

	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})

	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
