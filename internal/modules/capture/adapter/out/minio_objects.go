package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	captureout "fieldcap/internal/modules/capture/port/out"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioObjects uploads captures to an S3-compatible bucket. Buckets are created on first use.
type MinioObjects struct {
	client *minio.Client
	base   string

	mu      sync.Mutex
	checked map[string]bool
}

var _ captureout.ObjectStore = (*MinioObjects)(nil)

func NewMinioObjects(cfg MinioConfig) (*MinioObjects, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("object storage endpoint is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioObjects{client: client, base: PublicBase(cfg.Endpoint, cfg.UseSSL), checked: map[string]bool{}}, nil
}

func (m *MinioObjects) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if err := m.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err := m.client.PutObject(ctx, bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (m *MinioObjects) PublicURL(bucket, path string) string {
	return PublicObjectURL(m.base, bucket, path)
}

func (m *MinioObjects) ensureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.checked[bucket] {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	m.checked[bucket] = true
	return nil
}

func PublicBase(endpoint string, useSSL bool) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimSuffix(endpoint, "/")
}

// PublicObjectURL joins base, bucket and an object path, escaping each path segment.
func PublicObjectURL(base, bucket, path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// ErrObjectsUnconfigured is returned by Unconfigured on every upload, which sends every
// capture down the local fallback path.
var ErrObjectsUnconfigured = errors.New("object storage not configured")

type Unconfigured struct{}

var _ captureout.ObjectStore = Unconfigured{}

func (Unconfigured) Upload(context.Context, string, string, []byte, string) error {
	return ErrObjectsUnconfigured
}

func (Unconfigured) PublicURL(string, string) string { return "" }
