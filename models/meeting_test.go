package models_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}
	return db
}

func seedMeeting(t *testing.T, db *gorm.DB, m models.Meeting) *models.Meeting {
	t.Helper()
	if m.MeetingAt.IsZero() {
		m.MeetingAt = time.Date(2024, 1, m.Sequence, 10, 30, 0, 0, time.UTC)
	}
	if err := db.Create(&m).Error; err != nil {
		t.Fatalf("create meeting %s: %v", m.Ref, err)
	}
	return &m
}

func TestGetMeetingByRef_InactiveIsNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	seedMeeting(t, db, models.Meeting{Ref: "RCM-1", MeetingTypeId: 1, CategoryId: 1, Sequence: 1, IsActive: true})
	seedMeeting(t, db, models.Meeting{Ref: "RCM-2", MeetingTypeId: 1, CategoryId: 1, Sequence: 2, IsActive: false})

	m, err := models.GetMeetingByRef(ctx, db, "RCM-1")
	if err != nil {
		t.Fatalf("GetMeetingByRef active: %v", err)
	}
	if m.Sequence != 1 {
		t.Fatalf("sequence=%d want 1", m.Sequence)
	}

	for _, ref := range []string{"RCM-2", "RCM-404", "  "} {
		_, err := models.GetMeetingByRef(ctx, db, ref)
		if !errors.Is(err, utils.ErrorNoMeetingFound) {
			t.Fatalf("ref %q: err=%v want ErrorNoMeetingFound", ref, err)
		}
		if utils.ErrorKindOf(err) != utils.ErrorKindNotFound {
			t.Fatalf("ref %q: kind=%s want NotFound", ref, utils.ErrorKindOf(err))
		}
	}
}

func TestGetCompanyByRef_InactiveIsNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	active := models.Company{Ref: "C-1", Name: "Acme Steel Ltd", Cin: "L27100MH1990PLC000001", IsActive: true}
	inactive := models.Company{Ref: "C-2", Name: "Gone Ltd", Cin: "U00000", IsActive: false}
	if err := db.Create(&active).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	c, err := models.GetCompanyByRef(ctx, db, "C-1")
	if err != nil || c.Name != "Acme Steel Ltd" {
		t.Fatalf("GetCompanyByRef: %+v %v", c, err)
	}
	if _, err := models.GetCompanyByRef(ctx, db, "C-2"); !errors.Is(err, utils.ErrorNoCompanyFound) {
		t.Fatalf("inactive company: err=%v", err)
	}
}

func TestGetPreviousMeeting_Sequences(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var meetings []*models.Meeting
	for seq := 1; seq <= 4; seq++ {
		meetings = append(meetings, seedMeeting(t, db, models.Meeting{
			Ref: fmt.Sprintf("RCM-%d", seq), MeetingTypeId: 2, CategoryId: 3, Sequence: seq, IsActive: true,
		}))
	}

	prev, err := models.GetPreviousMeeting(ctx, db, meetings[3])
	if err != nil {
		t.Fatalf("GetPreviousMeeting: %v", err)
	}
	if prev == nil || prev.ID != meetings[2].ID || prev.Sequence != 3 {
		t.Fatalf("previous of 4 = %+v want meeting 3", prev)
	}

	prev, err = models.GetPreviousMeeting(ctx, db, meetings[0])
	if err != nil {
		t.Fatalf("GetPreviousMeeting first: %v", err)
	}
	if prev != nil {
		t.Fatalf("first meeting should have no predecessor, got %+v", prev)
	}
}

func TestGetPreviousMeeting_SeriesComparisonIsNonStrict(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// lower type/category still counts as history, higher does not
	lower := seedMeeting(t, db, models.Meeting{Ref: "A", MeetingTypeId: 1, CategoryId: 1, Sequence: 1, IsActive: true})
	seedMeeting(t, db, models.Meeting{Ref: "B", MeetingTypeId: 3, CategoryId: 1, Sequence: 2, IsActive: true})
	seedMeeting(t, db, models.Meeting{Ref: "C", MeetingTypeId: 2, CategoryId: 2, Sequence: 3, IsActive: false})
	current := seedMeeting(t, db, models.Meeting{Ref: "D", MeetingTypeId: 2, CategoryId: 2, Sequence: 4, IsActive: true})

	prev, err := models.GetPreviousMeeting(ctx, db, current)
	if err != nil {
		t.Fatalf("GetPreviousMeeting: %v", err)
	}
	if prev == nil || prev.ID != lower.ID {
		t.Fatalf("previous=%+v want meeting A (id %d)", prev, lower.ID)
	}
}

func TestGeneratedDocument_CreateListFind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	companyId := 7
	docs := []*models.GeneratedDocument{
		{ArtifactId: "a-1", MeetingId: 1, DocumentKind: models.DocumentKindAgenda, DocumentFormat: models.DocumentFormatSource, FileType: models.FileTypeXLSX, ObjectKey: "k1", StorageUrl: "u1", CreatedBy: 9},
		{ArtifactId: "a-2", MeetingId: 1, CompanyId: &companyId, DocumentKind: models.DocumentKindRatingLetter, DocumentFormat: models.DocumentFormatDerived, FileType: models.FileTypePDF, ObjectKey: "k2", StorageUrl: "u2", CreatedBy: 9},
		{ArtifactId: "a-3", MeetingId: 2, DocumentKind: models.DocumentKindMinutes, DocumentFormat: models.DocumentFormatDerived, FileType: models.FileTypePDF, ObjectKey: "k3", StorageUrl: "u3", CreatedBy: 9},
	}
	for _, d := range docs {
		if err := models.CreateGeneratedDocument(ctx, db, d); err != nil {
			t.Fatalf("CreateGeneratedDocument: %v", err)
		}
	}

	dup := &models.GeneratedDocument{ArtifactId: "a-1", MeetingId: 1, DocumentKind: models.DocumentKindAgenda, DocumentFormat: models.DocumentFormatSource, FileType: models.FileTypeXLSX, ObjectKey: "k", StorageUrl: "u", CreatedBy: 9}
	if err := models.CreateGeneratedDocument(ctx, db, dup); err == nil {
		t.Fatalf("duplicate artifact id must be rejected")
	}

	list, err := models.ListGeneratedDocuments(ctx, db, []int{1})
	if err != nil {
		t.Fatalf("ListGeneratedDocuments: %v", err)
	}
	if len(list) != 2 || list[0].ArtifactId != "a-2" || list[1].ArtifactId != "a-1" {
		t.Fatalf("unexpected listing: %+v", list)
	}

	found, err := models.GetGeneratedDocumentByArtifactId(ctx, db, "a-3")
	if err != nil || found.MeetingId != 2 {
		t.Fatalf("GetGeneratedDocumentByArtifactId: %+v %v", found, err)
	}
	if _, err := models.GetGeneratedDocumentByArtifactId(ctx, db, "missing"); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing artifact: err=%v", err)
	}
}

func TestParseDocumentKindAndFormat(t *testing.T) {
	if k, err := models.ParseDocumentKind("Rating-Sheet"); err != nil || k != models.DocumentKindRatingSheet {
		t.Fatalf("ParseDocumentKind: %v %v", k, err)
	}
	if _, err := models.ParseDocumentKind("balance_sheet"); utils.ErrorKindOf(err) != utils.ErrorKindInvalidRequest {
		t.Fatalf("unknown kind should be InvalidRequest, got %v", err)
	}
	if f, err := models.ParseDocumentFormat(""); err != nil || f != models.DocumentFormatDerived {
		t.Fatalf("empty format should default to derived: %v %v", f, err)
	}
	if _, err := models.ParseDocumentFormat("docx"); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestResolvers_DeactivationTakesEffectImmediately(t *testing.T) {
	t.Setenv("RESOLVER_CACHE_TTL_SECONDS", "")
	db := openTestDB(t)
	ctx := context.Background()

	seedMeeting(t, db, models.Meeting{Ref: "RCM-9", MeetingTypeId: 1, CategoryId: 1, Sequence: 9, IsActive: true})
	if err := db.Create(&models.Company{Ref: "C-9", Name: "Nine Ltd", Cin: "L9", IsActive: true}).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	if _, err := models.GetMeetingByRef(ctx, db, "RCM-9"); err != nil {
		t.Fatalf("GetMeetingByRef: %v", err)
	}
	if _, err := models.GetCompanyByRef(ctx, db, "C-9"); err != nil {
		t.Fatalf("GetCompanyByRef: %v", err)
	}

	if err := db.Model(&models.Meeting{}).Where("ref = ?", "RCM-9").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate meeting: %v", err)
	}
	if err := db.Model(&models.Company{}).Where("ref = ?", "C-9").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate company: %v", err)
	}
	if _, err := models.GetMeetingByRef(ctx, db, "RCM-9"); !errors.Is(err, utils.ErrorNoMeetingFound) {
		t.Fatalf("deactivated meeting err=%v want ErrorNoMeetingFound", err)
	}
	if _, err := models.GetCompanyByRef(ctx, db, "C-9"); !errors.Is(err, utils.ErrorNoCompanyFound) {
		t.Fatalf("deactivated company err=%v want ErrorNoCompanyFound", err)
	}
}
