// Package logging builds the slog logger used by every nrmirror command.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// LevelTrace sits below debug and carries per-file probe misses.
const LevelTrace = slog.LevelDebug - 4

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the minimum level and the output encoding.
type Options struct {
	Verbosity int
	Format    string
}

// LevelForVerbosity maps a verbosity count to a minimum level:
// 0 warn, 1-2 info, 3-4 debug, 5 and above trace.
func LevelForVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v <= 2:
		return slog.LevelInfo
	case v <= 4:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level:       LevelForVerbosity(opts.Verbosity),
		ReplaceAttr: renameTrace,
	}

	var h slog.Handler
	if strings.EqualFold(opts.Format, FormatJSON) {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(h)
}

// renameTrace prints LevelTrace as TRACE instead of DEBUG-4.
func renameTrace(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
