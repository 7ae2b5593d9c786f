package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// openRunLog creates <prefix>conversion.log (truncating any previous run)
// and returns a logger that writes to both the file and stderr. Every
// record carries the run_id attribute.
func openRunLog(prefix, format string, verbose bool, stderr io.Writer) (*slog.Logger, func() error, error) {
	path := prefix + "conversion.log"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open run log: %w", err)
	}

	h, err := newHandler(io.MultiWriter(stderr, f), format, verbose)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return slog.New(h).With("run_id", uuid.NewString()), f.Close, nil
}

func newHandler(w io.Writer, format string, verbose bool) (slog.Handler, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.NewTextHandler(w, ho), nil
	case "json":
		return slog.NewJSONHandler(w, ho), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}
