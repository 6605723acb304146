package hibag

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
)

// openInput opens a local file or a gs://bucket/object path. Paths ending in
// .gz are decompressed on the fly.
func openInput(ctx context.Context, path string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	var err error
	if strings.HasPrefix(path, "gs://") {
		rc, err = openGoogleStorage(ctx, path)
	} else {
		rc, err = os.Open(path)
	}
	if err != nil {
		return nil, pfx.Err(err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return rc, nil
	}

	gz, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return &stackedCloser{Reader: gz, closers: []io.Closer{gz, rc}}, nil
}

func openGoogleStorage(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(path, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return nil, pfx.Err(fmt.Errorf("%w: malformed Google Storage path %q", ErrInvalidArgument, path))
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	return &stackedCloser{Reader: r, closers: []io.Closer{r, client}}, nil
}

// stackedCloser closes every layer of a reader stack, innermost last.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
