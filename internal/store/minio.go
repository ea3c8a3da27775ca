package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
)

// MinioStore implements ObjectStore for MinIO and S3-compatible storage
// through the native MinIO client.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinio creates a MinIO-backed ObjectStore.
// bucket is the MinIO bucket name.
// prefix is prepended to all keys (e.g. the repository identifier).
func NewMinio(client *minio.Client, bucket, prefix string) *MinioStore {
	return &MinioStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *MinioStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// Upload writes data to the named path via PutObject.
func (s *MinioStore) Upload(ctx context.Context, p string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(p),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("upload %s: %w", p, err)
	}
	return nil
}

// Get reads the named object into memory.
func (s *MinioStore) Get(ctx context.Context, p string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", p, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isMinioNotFound(err) {
			return nil, fmt.Errorf("get %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", p, err)
	}
	return data, nil
}

// Download fetches the named object into destDir and returns the absolute
// local path of the downloaded file.
func (s *MinioStore) Download(ctx context.Context, p, destDir string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(p), minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", p, err)
	}
	defer obj.Close()

	dest := filepath.Join(destDir, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, obj); err != nil {
		f.Close()
		if isMinioNotFound(err) {
			return "", fmt.Errorf("download %s: %w", p, ErrNotFound)
		}
		return "", fmt.Errorf("download %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return filepath.Abs(dest)
}

// List returns all object paths with the given prefix.
func (s *MinioStore) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				return nil, fmt.Errorf("list %s: %w", prefix, ErrRepositoryNotFound)
			}
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// Exists reports whether the named object exists.
func (s *MinioStore) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, s.key(p), minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isMinioNotFound reports whether err indicates a missing object.
func isMinioNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Compile-time interface check.
var _ ObjectStore = (*MinioStore)(nil)
