// Package datasource resolves input locations (local paths, http(s) URLs and
// s3:// objects) to readable streams.
package datasource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"phenoextract/internal/datasource/file"
	"phenoextract/internal/datasource/httpds"
	"phenoextract/internal/datasource/s3src"
)

// Source opens a byte stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Resolver maps a location string to a Source. The zero value is usable:
// HTTP uses a default client and S3 settings come from the environment.
type Resolver struct {
	HTTP *httpds.Client
	S3   s3src.Config

	once    sync.Once
	s3      *s3src.Store
	s3Err   error
	newS3Fn func(ctx context.Context, cfg s3src.Config) (*s3src.Store, error)
}

// IsRemote reports whether location names an http(s) or s3 object.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "s3://") ||
		strings.HasPrefix(location, "http://") ||
		strings.HasPrefix(location, "https://")
}

// Source returns the Source for location without opening it.
func (r *Resolver) Source(location string) Source {
	switch {
	case strings.HasPrefix(location, "s3://"):
		return sourceFunc(func(ctx context.Context) (io.ReadCloser, error) {
			st, err := r.store(ctx)
			if err != nil {
				return nil, err
			}
			return st.Open(ctx, location)
		})
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return sourceFunc(func(ctx context.Context) (io.ReadCloser, error) {
			c := r.HTTP
			if c == nil {
				c = httpds.NewClient(httpds.Config{MaxRetries: 3})
			}
			return c.Open(ctx, location)
		})
	default:
		return file.NewLocal(location)
	}
}

// Open is shorthand for r.Source(location).Open(ctx).
func (r *Resolver) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return r.Source(location).Open(ctx)
}

// LocalPath returns a filesystem path holding the bytes of location. Remote
// objects are spooled into a temporary file that cleanup removes; for local
// paths cleanup is a no-op.
func (r *Resolver) LocalPath(ctx context.Context, location string) (path string, cleanup func(), err error) {
	if !IsRemote(location) {
		return file.ExpandHome(location), func() {}, nil
	}
	rc, err := r.Open(ctx, location)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "phenoextract-*"+filepath.Ext(location))
	if err != nil {
		return "", nil, fmt.Errorf("spool %s: %w", location, err)
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("spool %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("spool %s: %w", location, err)
	}
	return tmp.Name(), cleanup, nil
}

func (r *Resolver) store(ctx context.Context) (*s3src.Store, error) {
	r.once.Do(func() {
		newFn := r.newS3Fn
		if newFn == nil {
			newFn = s3src.New
		}
		r.s3, r.s3Err = newFn(ctx, r.S3)
	})
	return r.s3, r.s3Err
}

type sourceFunc func(ctx context.Context) (io.ReadCloser, error)

func (f sourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }
