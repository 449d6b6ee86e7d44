// Package storage implements the blob store that holds report images.
// Production deployments write to Google Cloud Storage; development
// writes to a local directory that the HTTP server exposes at /uploads.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"
	"time"
)

// BlobStore persists a binary object and returns a durable URL for it.
type BlobStore interface {
	Put(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectPath builds the object path of an uploaded report image:
// damage_reports/<uid>/<unix millis>_<file name>.
func ObjectPath(uid, fileName string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("damage_reports/%s/%d_%s", unsafeChars.ReplaceAllString(uid, "_"), now.UnixMilli(), name)
}

// UseGCS reports whether uploads should go to Cloud Storage. Besides the
// explicit flag, running on Google Cloud (credentials file or Cloud Run)
// switches it on.
func UseGCS(explicit bool) bool {
	return explicit ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != "" // Cloud Run indicator
}

// cleanObjectPath rejects absolute paths and parent references.
func cleanObjectPath(p string) (string, error) {
	c := path.Clean("/" + p)[1:]
	if c == "" || c != p {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return c, nil
}

// New returns the configured blob store. The caller closes it on shutdown.
func New(ctx context.Context, useGCS bool, bucket, uploadDir, publicBaseURL string) (BlobStore, io.Closer, error) {
	if UseGCS(useGCS) {
		if bucket == "" {
			return nil, nil, fmt.Errorf("storage: GCS_BUCKET is required when GCS is enabled")
		}
		s, err := NewGCSStore(ctx, bucket)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	s, err := NewLocalStore(uploadDir, publicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
