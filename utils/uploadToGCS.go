package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
	// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// GCSBlobStore uploads generated artifacts to a single bucket.
type GCSBlobStore struct {
	Bucket string
}

func NewGCSBlobStore() (*GCSBlobStore, error) {
	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSBlobStore{Bucket: bucket}, nil
}

// Upload writes data under objectKey and returns its access URL. The write
// only succeeds if no object exists under the key; otherwise the error wraps
// ErrorArtifactExists. Any other non-success status is returned as an error.
func (s *GCSBlobStore) Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	wc := client.Bucket(s.Bucket).Object(objectKey).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	wc.ContentType = contentType
	// generated documents are immutable once registered
	wc.CacheControl = "private, max-age=31536000, immutable"
	if requestId, ok := GetRequestIdFromContext(ctx); ok {
		wc.Metadata = map[string]string{"request-id": requestId}
	}

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload bytes to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusPreconditionFailed {
				return "", fmt.Errorf("%w: %s", ErrorArtifactExists, objectKey)
			}
			return "", fmt.Errorf("google cloud storage responded with status %d: %w", apiErr.Code, err)
		}
		return "", fmt.Errorf("failed to close writer: %w", err)
	}
	return BuildObjectAccessURL(objectKey), nil
}

// ObjectExists checks if an object exists in the bucket.
func (s *GCSBlobStore) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return false, err
	}
	defer client.Close()

	_, err = client.Bucket(s.Bucket).Object(objectKey).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
