// Package logger builds the zerolog loggers used by the demo.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var pid = os.Getpid()

func level(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a JSON logger writing to w.
func New(w io.Writer, debug bool) zerolog.Logger {
	return zerolog.New(w).Level(level(debug)).With().
		Timestamp().
		Int("pid", pid).
		Logger()
}

// NewConsole returns a human readable logger writing to w. The tag is
// printed in front of every message. Colors are only used when w is a
// terminal.
func NewConsole(w io.Writer, debug bool, tag string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05.0000",
		NoColor:    !IsTerminal(w),
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			"pid",
			zerolog.LevelFieldName,
			"s",
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{"s", "pid"},
	}
	if output.NoColor {
		output.FormatMessage = func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("%v", i)
		}
	}
	return zerolog.New(output).Level(level(debug)).With().
		Str("pid", fmt.Sprintf("%4x", pid)).
		Str("s", tag).
		Timestamp().
		Logger()
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
