package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Services receive it
// explicitly; nothing logs through a global.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
