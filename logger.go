package kerf

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record and reports every level as disabled, so
// attribute arguments of silenced calls are never formatted.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var silent = slog.New(discard{})

// current is swapped by SetLogger while Adjust may be running on the
// worker pool.
var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(silent)
}

// SetLogger routes the log output of Adjust, the dxf reader and writer,
// config loading and the kerfd handlers to l. A nil l silences them again,
// which is also the state before the first call.
//
// Messages are prefixed with the emitting package ("kerf:", "dxf:",
// "config:", "server:"). By level:
//   - [slog.LevelDebug]: stitch and corner-join decisions, pool size,
//     dxf read totals, server cache hits
//   - [slog.LevelInfo]: one summary per Adjust call and per served drawing
//   - [slog.LevelWarn]: skipped or non-planar entities, contours left
//     un-offset, unknown $DWGCODEPAGE values, malformed KERF_* variables
//   - [slog.LevelError]: requests that failed with a 5xx status
//
// The kerf command installs a text handler on stderr at Warn, or Debug
// with -v:
//
//	kerf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger installed by SetLogger. The internal packages
// log through it rather than holding their own.
func Logger() *slog.Logger {
	return current.Load()
}
