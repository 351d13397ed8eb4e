// Package storage opens the destination that downloaded files are written to.
//
// A destination is either a local directory (the default) or any bucket URL
// understood by gocloud.dev: s3://, gs://, mem:// or file://. Local
// directories are opened with fileblob so that files land at
// {root}/{category}/{file} with no attribute sidecars next to them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

// ContentType is recorded on objects written to buckets that keep it.
const ContentType = "application/vnd.apache.parquet"

var (
	ErrNoDestination = errors.New("storage: destination is required")
	ErrNotLocal      = errors.New("storage: destination is not a local directory")
)

// Object describes a stored file.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a destination for downloaded files.
type Store struct {
	bucket *blob.Bucket
	root   string // absolute local directory, empty for remote buckets
	dest   string
}

// Open opens dest, creating it first when it is a local directory.
func Open(ctx context.Context, dest string) (*Store, error) {
	if dest == "" {
		return nil, ErrNoDestination
	}

	root, local, err := LocalRoot(dest)
	if err != nil {
		return nil, err
	}

	if !local {
		b, err := blob.OpenBucket(ctx, dest)
		if err != nil {
			return nil, fmt.Errorf("open bucket: %w", err)
		}
		return &Store{bucket: b, dest: dest}, nil
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", root, err)
	}

	b, err := fileblob.OpenBucket(root, &fileblob.Options{
		CreateDir: true,
		NoTempDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", root, err)
	}
	return &Store{bucket: b, root: root, dest: dest}, nil
}

// New wraps an already open bucket. root is the local directory backing
// the bucket, or empty.
func New(b *blob.Bucket, root string) *Store {
	return &Store{bucket: b, root: root, dest: root}
}

// LocalRoot returns the absolute directory named by dest. local is false
// for bucket URLs other than file://.
func LocalRoot(dest string) (root string, local bool, err error) {
	dir := dest
	if strings.Contains(dest, "://") {
		if !strings.HasPrefix(dest, "file://") {
			return "", false, nil
		}
		u, err := url.Parse(dest)
		if err != nil {
			return "", false, fmt.Errorf("parse destination: %w", err)
		}
		dir = filepath.FromSlash(u.Path)
	}
	root, err = filepath.Abs(dir)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return root, true, nil
}

// Bucket returns the underlying bucket.
func (s *Store) Bucket() *blob.Bucket {
	return s.bucket
}

// Root returns the local directory, or "" for remote buckets.
func (s *Store) Root() string {
	return s.root
}

// String returns the destination as given to Open.
func (s *Store) String() string {
	return s.dest
}

// EnsureDir creates the directory for a category. It is a no-op for
// remote buckets, which have no directories.
func (s *Store) EnsureDir(category string) error {
	if s.root == "" {
		return nil
	}
	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// Size returns the size of the object at key. ok is false when no object
// exists.
func (s *Store) Size(ctx context.Context, key string) (size int64, ok bool, err error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat %s: %w", key, err)
	}
	return attrs.Size, true, nil
}

// NewWriter opens key for writing, replacing any existing object when the
// writer is closed. Cancel ctx before Close to abort the write.
func (s *Store) NewWriter(ctx context.Context, key string) (*blob.Writer, error) {
	w, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("open writer %s: %w", key, err)
	}
	return w, nil
}

// List returns the objects under prefix whose key ends in suffix, in key
// order.
func (s *Store) List(ctx context.Context, prefix, suffix string) ([]Object, error) {
	var objs []Object
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, suffix) {
			continue
		}
		objs = append(objs, Object{Key: obj.Key, Size: obj.Size, ModTime: obj.ModTime})
	}
	return objs, nil
}

// FreeSpace returns the bytes available on the volume holding a local
// destination.
func (s *Store) FreeSpace() (uint64, error) {
	if s.root == "" {
		return 0, ErrNotLocal
	}
	usage, err := disk.Usage(s.root)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", s.root, err)
	}
	return usage.Free, nil
}

// Close releases the bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}
