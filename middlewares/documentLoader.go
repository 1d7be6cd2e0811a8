package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type documentReader struct {
	db *gorm.DB
}

func (r *documentReader) GetDocuments(ctx context.Context, meetingIds []int) []*dataloader.Result[[]*models.GeneratedDocument] {
	results, err := models.ListGeneratedDocuments(ctx, r.db, meetingIds)
	if err != nil {
		return handleError[[]*models.GeneratedDocument](len(meetingIds), err)
	}

	// key => meeting id
	// value => documents of the meeting, newest first
	resultMap := make(map[int][]*models.GeneratedDocument)
	for _, result := range results {
		resultMap[result.MeetingId] = append(resultMap[result.MeetingId], result)
	}
	loaderResults := make([]*dataloader.Result[[]*models.GeneratedDocument], 0, len(meetingIds))
	for _, id := range meetingIds {
		documents := resultMap[id]
		if documents == nil {
			documents = []*models.GeneratedDocument{}
		}
		loaderResults = append(loaderResults, &dataloader.Result[[]*models.GeneratedDocument]{Data: documents})
	}
	return loaderResults
}

func GetMeetingDocuments(ctx context.Context, meetingId int) ([]*models.GeneratedDocument, error) {
	loaders := For(ctx)
	return loaders.documentLoader.Load(ctx, meetingId)()
}
