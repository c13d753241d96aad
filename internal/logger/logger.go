package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger = zap.NewNop()

// Init builds the process-wide logger. Debug mode switches to the
// development config (human-readable output, debug level enabled).
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	log = l
	return nil
}

// L returns the current logger. Safe to call before Init (no-op logger).
func L() *zap.Logger {
	return log
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = log.Sync()
}
