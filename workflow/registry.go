package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrArtifactAlreadyRegistered is returned when another run registered the
// same request id first.
var ErrArtifactAlreadyRegistered = errors.New("artifact already registered")

type RegistryStore interface {
	Create(ctx context.Context, doc *models.GeneratedDocument) error
	ListByMeeting(ctx context.Context, meetingIds []int) ([]*models.GeneratedDocument, error)
	FindByArtifactId(ctx context.Context, artifactId string) (*models.GeneratedDocument, error)
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// GormRegistry is the generated_documents table.
type GormRegistry struct {
	DB *gorm.DB
}

func (r *GormRegistry) Create(ctx context.Context, doc *models.GeneratedDocument) error {
	if err := models.CreateGeneratedDocument(ctx, r.DB, doc); err != nil {
		if isDuplicateKeyErr(err) {
			return fmt.Errorf("%w: %w: %s", utils.ErrorRegistryWriteFailed, ErrArtifactAlreadyRegistered, doc.ArtifactId)
		}
		return fmt.Errorf("%w: %w", utils.ErrorRegistryWriteFailed, err)
	}
	return nil
}

func (r *GormRegistry) ListByMeeting(ctx context.Context, meetingIds []int) ([]*models.GeneratedDocument, error) {
	return models.ListGeneratedDocuments(ctx, r.DB, meetingIds)
}

func (r *GormRegistry) FindByArtifactId(ctx context.Context, artifactId string) (*models.GeneratedDocument, error) {
	return models.GetGeneratedDocumentByArtifactId(ctx, r.DB, artifactId)
}
