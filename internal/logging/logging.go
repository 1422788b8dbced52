// Package logging provides the one shared logrus logger used across
// the session and driver packages. It defaults to discarding
// everything; the CLI turns it on with -v.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var log = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetVerbose switches the shared logger between discarding everything
// and writing text-formatted lines to stderr at Debug level.
func SetVerbose(v bool) {
	if v {
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	log.SetOutput(io.Discard)
}

// Log returns the shared logger for structured field logging.
func Log() *logrus.Logger {
	return log
}
