package servecmder

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/papercomputeco/chatter/pkg/logger"
)

// newServeLogger logs JSON to console. With a log file, console output
// switches to the pretty handler and the JSON records are appended to the
// file instead. The returned func closes the file.
func newServeLogger(debug bool, console io.Writer, logFile string) (*slog.Logger, func() error, error) {
	if logFile == "" {
		l := logger.New(
			logger.WithDebug(debug),
			logger.WithJSON(true),
			logger.WithWriter(console),
		)
		return l, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	l := logger.Multi(
		logger.New(
			logger.WithDebug(debug),
			logger.WithPretty(true),
			logger.WithWriter(console),
		),
		logger.New(
			logger.WithDebug(debug),
			logger.WithJSON(true),
			logger.WithWriter(f),
		),
	)
	return l, f.Close, nil
}
