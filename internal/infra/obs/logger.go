package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds a colored tint logger for dev and local, JSON elsewhere. The test env
// discards output.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	var writer io.Writer = os.Stdout
	switch strings.ToLower(env) {
	case "dev", "local":
		return slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	case "test":
		writer = io.Discard
	}
	return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
}
