package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
)

// GCSStore writes objects to a Google Cloud Storage bucket. Credentials
// come from the environment (Application Default Credentials).
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore opens a Cloud Storage client for bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Put streams r into the bucket and returns the object's public URL.
func (s *GCSStore) Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	w := s.client.Bucket(s.bucket).Object(p).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: upload %s: %w", p, err)
	}
	// The object is only committed on Close.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: commit %s: %w", p, err)
	}
	return (&url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + s.bucket + "/" + p}).String(), nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error { return s.client.Close() }
