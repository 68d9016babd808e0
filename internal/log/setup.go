package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

type Options struct {
	Level string
	// File is optional. When empty, records go to stderr without
	// rotation.
	File      string
	MaxSizeMB int
	MaxFiles  int
}

// New builds the process logger: JSON records, sensitive fields
// redacted, rotated on disk when a file is configured. The returned
// closer is non-nil only for file-backed loggers.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var writer io.Writer = os.Stderr
	var closer io.Closer
	if opts.File != "" {
		rotating, err := NewRotatingWriter(RotationConfig{
			File:      opts.File,
			MaxSizeMB: opts.MaxSizeMB,
			MaxFiles:  opts.MaxFiles,
		})
		if err != nil {
			return nil, nil, err
		}
		writer = rotating
		closer = rotating
	}

	base := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(NewRedactingHandler(base)), closer, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}
