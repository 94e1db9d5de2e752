package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// New builds the process logger. format "json" writes one JSON object per
// line; anything else writes human readable console output.
func New(level, format string) *log.Logger {
	var w log.Writer
	switch format {
	case "json":
		w = &log.IOWriter{Writer: os.Stderr}
	default:
		w = &log.ConsoleWriter{
			Writer:         os.Stderr,
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	return &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05.000",
		Writer:     w,
	}
}

func Discard() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

// To is used by tests that assert on log output.
func To(w io.Writer) *log.Logger {
	return &log.Logger{Level: log.DebugLevel, Writer: &log.IOWriter{Writer: w}}
}
