package sql

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// logger receives a debug record for every statement the grammars build.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

// SetLogger installs the process-wide logger used to report built
// statements at debug level. A nil logger disables reporting.
//
//	sql.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

// Logger returns the process-wide statement logger.
func Logger() *slog.Logger {
	return logger.Load()
}

func logStatement(dialect, op string, e Expression) {
	l := Logger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug("sql built", "dialect", dialect, "op", op, "sql", e.text, "args", len(e.args))
}
