package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"gorm.io/gorm"
)

// GeneratedDocument is the append-only audit record of one published artifact.
// Corrections are new rows; there is deliberately no update or delete here.
type GeneratedDocument struct {
	ID             int            `gorm:"primary_key" json:"id"`
	ArtifactId     string         `gorm:"size:64;not null;uniqueIndex" json:"artifact_id"`
	MeetingId      int            `gorm:"not null;index" json:"meeting_id"`
	CompanyId      *int           `gorm:"index" json:"company_id"`
	DocumentKind   DocumentKind   `gorm:"size:50;not null;index" json:"document_kind"`
	DocumentFormat DocumentFormat `gorm:"size:20;not null" json:"document_format"`
	FileType       FileType       `gorm:"size:10;not null" json:"file_type"`
	ObjectKey      string         `gorm:"size:512;not null" json:"object_key"`
	StorageUrl     string         `gorm:"size:1024;not null" json:"storage_url"`
	CreatedBy      int            `gorm:"not null;index" json:"created_by"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func CreateGeneratedDocument(ctx context.Context, db *gorm.DB, doc *GeneratedDocument) error {
	if doc == nil || doc.ArtifactId == "" || doc.StorageUrl == "" || doc.MeetingId == 0 {
		return errors.New("generated document requires artifact id, storage url and meeting id")
	}
	doc.ID = 0
	doc.IsActive = true
	if err := db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create generated document: %w", err)
	}
	return nil
}

// ListGeneratedDocuments returns active documents of the given meetings,
// newest first within each meeting.
func ListGeneratedDocuments(ctx context.Context, db *gorm.DB, meetingIds []int) ([]*GeneratedDocument, error) {
	var docs []*GeneratedDocument
	if len(meetingIds) == 0 {
		return docs, nil
	}
	if err := db.WithContext(ctx).
		Where("meeting_id IN ? AND is_active = ?", meetingIds, true).
		Order("meeting_id, id DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func GetGeneratedDocumentByArtifactId(ctx context.Context, db *gorm.DB, artifactId string) (*GeneratedDocument, error) {
	var doc GeneratedDocument
	err := db.WithContext(ctx).Where("artifact_id = ? AND is_active = ?", artifactId, true).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &doc, nil
}
