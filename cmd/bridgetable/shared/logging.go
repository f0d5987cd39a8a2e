package shared

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger returns a timestamped console logger on stderr.
func SetupLogger(level string, debug bool) (*log.Logger, error) {
	return NewLogger(os.Stderr, level, debug)
}

// NewLogger builds a logger writing to w. debug forces the debug level.
func NewLogger(w io.Writer, level string, debug bool) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(strings.ToLower(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
		lvl = parsed
	}
	if debug {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}
