// Package logger provides the process-wide structured logger used by every
// subsystem: TLS handshake diagnostics, parser recovery notes, fetch
// failures, and script-host errors all flow through here rather than
// fmt.Println.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Log is the process-wide logger. It is safe for concurrent use, though the
// reactor model (see internal/controller) means most callers are single
// threaded in practice.
var Log = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Init configures the global logger. level is one of debug/info/warn/error;
// an empty or unrecognized level defaults to info. If logFile is non-empty,
// log lines are written to both stdout and the file.
func Init(level string, logFile string) error {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	writers := []io.Writer{os.Stdout}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05.000"))
			}
			return a
		},
	})

	Log = slog.New(handler)
	slog.SetDefault(Log)
	return nil
}

// Debug logs a parser-recovery or cache-hit style message — never surfaced
// to the user, per the error taxonomy's "parse errors are always local and
// recoverable" rule.
func Debug(msg string, args ...any) { Log.Debug(msg, args...) }

// Warn logs a resource-placeholder or best-effort-fallback message.
func Warn(msg string, args ...any) { Log.Warn(msg, args...) }

// Error logs a fatal-to-the-pipeline-pass failure: TLS alerts, transport
// failures, or a script host exception.
func Error(msg string, args ...any) { Log.Error(msg, args...) }
