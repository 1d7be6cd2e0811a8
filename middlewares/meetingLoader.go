package middlewares

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type meetingReader struct {
	db *gorm.DB
}

func (r *meetingReader) getMeetings(ctx context.Context, refs []string) []*dataloader.Result[*models.Meeting] {
	var results []*models.Meeting
	err := r.db.WithContext(ctx).Where("ref IN ? AND is_active = ?", refs, true).Find(&results).Error
	if err != nil {
		return handleError[*models.Meeting](len(refs), err)
	}

	resultMap := make(map[string]*models.Meeting, len(results))
	for _, result := range results {
		resultMap[result.Ref] = result
	}
	loaderResults := make([]*dataloader.Result[*models.Meeting], 0, len(refs))
	for _, ref := range refs {
		meeting, ok := resultMap[ref]
		if !ok {
			loaderResults = append(loaderResults, &dataloader.Result[*models.Meeting]{
				Error: fmt.Errorf("meeting %q: %w", ref, utils.ErrorNoMeetingFound),
			})
			continue
		}
		loaderResults = append(loaderResults, &dataloader.Result[*models.Meeting]{Data: meeting})
	}
	return loaderResults
}

func GetMeeting(ctx context.Context, ref string) (*models.Meeting, error) {
	loaders := For(ctx)
	return loaders.meetingLoader.Load(ctx, ref)()
}
