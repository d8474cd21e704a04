package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

type GCSReader struct {
	client *gcs.Client
}

func NewGCSReader(ctx context.Context, opts ...option.ClientOption) (*GCSReader, error) {
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSReader{client: c}, nil
}

func (r *GCSReader) Close() error { return r.client.Close() }

// Open reads gs://bucket/object.
func (r *GCSReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	return r.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// Upload writes r to gs://bucket/object and returns the object uri.
func (r *GCSReader) Upload(ctx context.Context, uri, contentType string, src io.Reader) (string, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return "", err
	}

	w := r.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return uri, nil
}

func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, gcsScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
	return bucket, object, nil
}
