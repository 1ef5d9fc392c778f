package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger, fanned out to any extra handlers, as
// the slog default and returns it. Request identity from the context is
// attached to every record.
func Setup(extra ...slog.Handler) *slog.Logger {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}
	logger := slog.New(NewContextHandler(handler))
	slog.SetDefault(logger)
	return logger
}
