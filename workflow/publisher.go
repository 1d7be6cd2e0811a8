package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

// BlobStore stores artifact bytes and returns their access address.
type BlobStore interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
}

type Publisher struct {
	Store BlobStore
}

// ObjectKey is meetings/<meetingRef>/<kind>/<requestId>.<ext>.
func ObjectKey(meetingRef string, kind models.DocumentKind, requestId string, fileType models.FileType) string {
	return path.Join("meetings", utils.SanitizeSegment(meetingRef), string(kind), utils.SanitizeSegment(requestId)+"."+string(fileType))
}

func (p *Publisher) Publish(ctx context.Context, objectKey string, data []byte, fileType models.FileType) (string, error) {
	if p == nil || p.Store == nil {
		return "", fmt.Errorf("%w: no blob store configured", utils.ErrorUploadFailed)
	}
	address, err := p.Store.Upload(ctx, objectKey, data, fileType.ContentType())
	if errors.Is(err, utils.ErrorArtifactExists) {
		return "", fmt.Errorf("%w: %w", ErrArtifactAlreadyRegistered, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrorUploadFailed, err)
	}
	if address == "" {
		return "", fmt.Errorf("%w: store returned an empty address", utils.ErrorUploadFailed)
	}
	return address, nil
}
