// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local data source bound to path. A leading "~/" is
// expanded to the current user's home directory.
func NewLocal(path string) *Local { return &Local{path: ExpandHome(path)} }

// Path returns the resolved filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading.
//
// Behavior:
//   - If ctx is already done, Open returns the context error without touching
//     the filesystem.
//   - The file is advised for sequential access where the platform supports
//     it; long-format biobank tables are read once, front to back.
//   - Filesystem errors are wrapped with the path while still permitting
//     errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory. Paths
// without the prefix, or when the home directory is unknown, are returned
// unchanged.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
