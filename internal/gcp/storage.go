package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrInvalidURI is returned for locations that are not gs://bucket/object.
var ErrInvalidURI = errors.New("invalid GCS URI")

const (
	uploadAttempts   = 4
	uploadBackoff    = 1 * time.Second
	uploadAttemptTTL = 50 * time.Second
)

// StorageClient implements services.ObjectStore on Cloud Storage.
type StorageClient struct {
	client *storage.Client
}

// NewStorageClient creates a Cloud Storage client using application default credentials.
func NewStorageClient(ctx context.Context) (*StorageClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return &StorageClient{client: client}, nil
}

// Close releases the underlying client.
func (s *StorageClient) Close() error {
	return s.client.Close()
}

// Download streams gs://bucket/key into destPath.
func (s *StorageClient) Download(ctx context.Context, bucket, key, destPath string) error {
	reader, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for %s: %w", URI(bucket, key), err)
	}
	defer reader.Close()

	return copyToFile(destPath, reader)
}

// copyToFile writes r to a new file at path. The file is closed before
// returning so a failed flush is reported.
func copyToFile(path string, r io.Reader) error {
	localFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", path, err)
	}
	if _, err := io.Copy(localFile, r); err != nil {
		_ = localFile.Close()
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	if err := localFile.Close(); err != nil {
		return fmt.Errorf("failed to close local file %s: %w", path, err)
	}
	return nil
}

// Upload writes srcPath to gs://bucket/key, retrying with exponential backoff.
// The object is only created if it does not exist yet; an existing object is
// left untouched and counts as success.
func (s *StorageClient) Upload(ctx context.Context, bucket, key, srcPath, contentType string) (string, error) {
	obj := s.client.Bucket(bucket).Object(key)
	err := withRetry(ctx, key, uploadAttempts, uploadBackoff, func(ctx context.Context) error {
		f, err := os.Open(srcPath)
		if err != nil {
			return fmt.Errorf("could not open local file %s: %w", srcPath, err)
		}
		defer f.Close()

		writeCtx, cancel := context.WithTimeout(ctx, uploadAttemptTTL)
		defer cancel()
		return writeIfAbsent(writeCtx, obj, f, contentType)
	})
	if err != nil {
		return "", err
	}
	return URI(bucket, key), nil
}

// writeIfAbsent copies r into obj guarded by a DoesNotExist precondition.
func writeIfAbsent(ctx context.Context, obj *storage.ObjectHandle, r io.Reader, contentType string) error {
	writer := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "gcsObject", obj.ObjectName())
			return nil
		}
		return fmt.Errorf("io.Copy to GCS failed: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Object already exists, skipping write.", "gcsObject", obj.ObjectName())
			return nil
		}
		return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

// withRetry runs fn up to attempts times, doubling the wait after each failure.
func withRetry(ctx context.Context, name string, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}

		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", name,
			"attempt", i+1,
			"maxRetries", attempts,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", name, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", name, lastErr)
}

// URI formats a gs:// location.
func URI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w %q: missing gs:// prefix", ErrInvalidURI, uri)
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w %q: want gs://bucket/object", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}
