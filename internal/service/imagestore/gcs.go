package imagestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const publicCacheControl = "public, max-age=86400"

// GCSStore пишет объекты в бакет Google Cloud Storage с публичным доступом на чтение.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore подключается к GCS.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// PublicBaseURL — префикс публичных ссылок на объекты бакета.
func (s *GCSStore) PublicBaseURL() string {
	return "https://storage.googleapis.com/" + s.bucket
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = publicCacheControl
	w.PredefinedACL = "publicRead"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gcs object writer: %w", err)
	}
	return nil
}

// Close закрывает клиент GCS.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

var _ ObjectStore = (*GCSStore)(nil)
