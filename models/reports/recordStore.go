package reports

import (
	"context"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"gorm.io/gorm"
)

// RecordStore resolves the records a report is built around.
type RecordStore interface {
	FindMeeting(ctx context.Context, ref string) (*models.Meeting, error)
	FindCompany(ctx context.Context, ref string) (*models.Company, error)
	FindPreviousMeeting(ctx context.Context, meeting *models.Meeting) (*models.HistoricalMeetingRef, error)
}

// RowSource runs the fixed report queries. Each method returns rows ordered
// the way the document lists them.
type RowSource interface {
	RatingSheetRows(ctx context.Context, meetingId int, companyId *int) ([]*RatingSheetRow, error)
	AgendaRows(ctx context.Context, meetingId int) ([]*AgendaRow, error)
	MinutesRows(ctx context.Context, meetingId int) ([]*MinutesRow, error)
	MinutesAttendees(ctx context.Context, meetingId int) ([]*MinutesAttendeeRow, error)
	MinutesVotes(ctx context.Context, meetingId int) ([]*MinutesVoteRow, error)
	PressReleaseRows(ctx context.Context, meetingId int, companyId int) ([]*PressReleaseRow, error)
	CompanyLetterRows(ctx context.Context, meetingId int, companyId int) ([]*CompanyLetterRow, error)
}

type GormRecordStore struct {
	DB *gorm.DB
}

func (s GormRecordStore) FindMeeting(ctx context.Context, ref string) (*models.Meeting, error) {
	return models.GetMeetingByRef(ctx, s.DB, ref)
}

func (s GormRecordStore) FindCompany(ctx context.Context, ref string) (*models.Company, error) {
	return models.GetCompanyByRef(ctx, s.DB, ref)
}

func (s GormRecordStore) FindPreviousMeeting(ctx context.Context, meeting *models.Meeting) (*models.HistoricalMeetingRef, error) {
	return models.GetPreviousMeeting(ctx, s.DB, meeting)
}

// GormRowSource implements RowSource with raw SQL; see the per-report files.
type GormRowSource struct {
	DB *gorm.DB
}
