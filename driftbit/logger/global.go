package logger

import (
	"log/slog"
	"time"
)

// LogCommand logs command execution from either surface.
func LogCommand(name string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Command failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Command executed", attrs...)
	}
}

// LogTick logs a scheduler task run.
func LogTick(task string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "tick"),
		slog.String("task", task),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Scheduler task failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Scheduler task completed", attrs...)
	}
}

// LogError logs error events.
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
