package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedURI = errors.New("storage: unsupported uri")

// Reader opens catalog sources by name.
type Reader interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// LocalReader reads from the filesystem. Relative names resolve against Root.
type LocalReader struct {
	Root string
}

func (l LocalReader) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !filepath.IsAbs(name) && l.Root != "" {
		name = filepath.Join(l.Root, name)
	}
	return os.Open(name)
}

// Router sends gs:// names to GCS and everything else to Local.
type Router struct {
	Local Reader
	GCS   Reader // nil when no bucket access is configured
}

func (r Router) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if strings.HasPrefix(name, gcsScheme) {
		if r.GCS == nil {
			return nil, ErrUnsupportedURI
		}
		return r.GCS.Open(ctx, name)
	}
	if r.Local == nil {
		return LocalReader{}.Open(ctx, name)
	}
	return r.Local.Open(ctx, name)
}

// IsRemote reports whether name needs a cloud reader.
func IsRemote(name string) bool { return strings.HasPrefix(name, gcsScheme) }
