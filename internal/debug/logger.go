package debug

import (
	"context"
	"log/slog"
)

var (
	logger = slog.New(noOp{})
)

func RegisterLogger(h slog.Handler) {
	logger = slog.New(h)
}

// Log writes the log message to the configured log handler.
// Level indicates the verbosity of the messages to log, as defined in log/slog.
// Arguments can be added as required, preferably as a set of slog.Attr.
func Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	logger.Log(ctx, level, msg, args...)
}

// Assert registers an error-level log message if the specified condition is false, optionally alongside
// any meaningful (set of) slog.Attr(s).
func Assert(ctx context.Context, condition bool, args ...any) {
	if !condition {
		logger.Log(ctx, slog.LevelError, "assertion failed", args...)
	}
}

// Component scopes every Log call to a fixed "component" attribute, e.g.
// "conn", "channel id=3" — the engine's reader/writer/heartbeat loops and
// each channel hold one of these rather than passing a component string
// at every call site.
type Component struct {
	name string
}

// With returns a Component that tags every subsequent Log call with name.
func With(name string) Component {
	return Component{name: name}
}

func (c Component) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	Log(ctx, level, msg, append([]any{"component", c.name}, args...)...)
}
