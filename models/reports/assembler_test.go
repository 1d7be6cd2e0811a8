package reports_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/models/reports"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/shopspring/decimal"
)

type fakeRecords struct {
	meetings  map[string]*models.Meeting
	companies map[string]*models.Company
	previous  map[int]*models.HistoricalMeetingRef
}

func (f *fakeRecords) FindMeeting(_ context.Context, ref string) (*models.Meeting, error) {
	if m, ok := f.meetings[ref]; ok {
		return m, nil
	}
	return nil, utils.ErrorNoMeetingFound
}

func (f *fakeRecords) FindCompany(_ context.Context, ref string) (*models.Company, error) {
	if c, ok := f.companies[ref]; ok {
		return c, nil
	}
	return nil, utils.ErrorNoCompanyFound
}

func (f *fakeRecords) FindPreviousMeeting(_ context.Context, m *models.Meeting) (*models.HistoricalMeetingRef, error) {
	return f.previous[m.ID], nil
}

type fakeRows struct {
	ratingSheet   []*reports.RatingSheetRow
	agenda        []*reports.AgendaRow
	minutes       []*reports.MinutesRow
	attendees     []*reports.MinutesAttendeeRow
	votes         []*reports.MinutesVoteRow
	pressRelease  []*reports.PressReleaseRow
	companyLetter []*reports.CompanyLetterRow

	lastCompanyFilter *int
}

func (f *fakeRows) RatingSheetRows(_ context.Context, _ int, companyId *int) ([]*reports.RatingSheetRow, error) {
	f.lastCompanyFilter = companyId
	return f.ratingSheet, nil
}

func (f *fakeRows) AgendaRows(context.Context, int) ([]*reports.AgendaRow, error) {
	return f.agenda, nil
}

func (f *fakeRows) MinutesRows(context.Context, int) ([]*reports.MinutesRow, error) {
	return f.minutes, nil
}

func (f *fakeRows) MinutesAttendees(context.Context, int) ([]*reports.MinutesAttendeeRow, error) {
	return f.attendees, nil
}

func (f *fakeRows) MinutesVotes(context.Context, int) ([]*reports.MinutesVoteRow, error) {
	return f.votes, nil
}

func (f *fakeRows) PressReleaseRows(context.Context, int, int) ([]*reports.PressReleaseRow, error) {
	return f.pressRelease, nil
}

func (f *fakeRows) CompanyLetterRows(context.Context, int, int) ([]*reports.CompanyLetterRow, error) {
	return f.companyLetter, nil
}

func strPtr(s string) *string { return &s }

func newFakeAssembler(rows *fakeRows) *reports.Assembler {
	first := &models.Meeting{ID: 1, Ref: "RCM-1", Sequence: 1, IsActive: true}
	second := &models.Meeting{ID: 2, Ref: "RCM-2", Sequence: 2, IsActive: true}
	return &reports.Assembler{
		Records: &fakeRecords{
			meetings:  map[string]*models.Meeting{"RCM-1": first, "RCM-2": second},
			companies: map[string]*models.Company{"C-1": {ID: 11, Ref: "C-1", Name: "Acme", Cin: "L1", IsActive: true}},
			previous:  map[int]*models.HistoricalMeetingRef{2: {ID: 1, Sequence: 1}},
		},
		Rows:     rows,
		Policies: config.DefaultKindPolicies(),
	}
}

func TestAssemble_FailureKinds(t *testing.T) {
	ctx := context.Background()
	rows := &fakeRows{}
	a := newFakeAssembler(rows)

	cases := []struct {
		name string
		req  reports.AssembleRequest
		want error
		kind utils.ErrorKind
	}{
		{"unknown meeting", reports.AssembleRequest{MeetingRef: "nope", Kind: models.DocumentKindAgenda}, utils.ErrorNoMeetingFound, utils.ErrorKindNotFound},
		{"unknown company", reports.AssembleRequest{MeetingRef: "RCM-2", CompanyRef: "C-404", Kind: models.DocumentKindRatingLetter}, utils.ErrorNoCompanyFound, utils.ErrorKindNotFound},
		{"missing company", reports.AssembleRequest{MeetingRef: "RCM-2", Kind: models.DocumentKindPressRelease}, utils.ErrorNoCompanyFound, utils.ErrorKindNotFound},
		{"minutes of first meeting", reports.AssembleRequest{MeetingRef: "RCM-1", Kind: models.DocumentKindMinutes}, utils.ErrorNoHistoricalData, utils.ErrorKindNoHistoricalData},
		{"letter without rows", reports.AssembleRequest{MeetingRef: "RCM-2", CompanyRef: "C-1", Kind: models.DocumentKindProvisionalCommunication}, utils.ErrorNoRowsFound, utils.ErrorKindNoRowsFound},
		{"unknown kind", reports.AssembleRequest{MeetingRef: "RCM-2", Kind: "balance_sheet"}, utils.ErrorInvalidRequest, utils.ErrorKindInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Assemble(ctx, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
			if got := utils.ErrorKindOf(err); got != tc.kind {
				t.Fatalf("kind=%s want %s", got, tc.kind)
			}
			if tc.req.Kind.IsValid() && !strings.HasPrefix(err.Error(), string(tc.req.Kind)) {
				t.Fatalf("error should carry the document kind: %v", err)
			}
		})
	}
}

func TestAssemble_HistoricalPolicyIsPerKind(t *testing.T) {
	ctx := context.Background()
	a := newFakeAssembler(&fakeRows{})

	// agenda of the first meeting renders without a predecessor
	data, err := a.Assemble(ctx, reports.AssembleRequest{MeetingRef: "RCM-1", Kind: models.DocumentKindAgenda})
	if err != nil {
		t.Fatalf("agenda: %v", err)
	}
	if data.Previous != nil || len(data.Groups) != 0 || data.Groups == nil {
		t.Fatalf("agenda data=%+v", data)
	}

	// relaxing the minutes policy makes the same request succeed
	policies := config.DefaultKindPolicies()
	mom, _ := policies.Policy(string(models.DocumentKindMinutes))
	mom.RequireHistorical = false
	policies.Set(string(models.DocumentKindMinutes), mom)
	a.Policies = policies
	if _, err := a.Assemble(ctx, reports.AssembleRequest{MeetingRef: "RCM-1", Kind: models.DocumentKindMinutes}); err != nil {
		t.Fatalf("minutes with relaxed policy: %v", err)
	}

	data, err = a.Assemble(ctx, reports.AssembleRequest{MeetingRef: "RCM-2", Kind: models.DocumentKindMinutes})
	if err != nil {
		t.Fatalf("minutes: %v", err)
	}
	if data.Previous == nil || data.Previous.ID != 1 {
		t.Fatalf("previous=%+v want meeting 1", data.Previous)
	}
}

func TestAssemble_RatingSheetCompanyFilterIsOptional(t *testing.T) {
	ctx := context.Background()
	rows := &fakeRows{ratingSheet: []*reports.RatingSheetRow{
		{CompanyId: 11, Cin: "L1", CompanyName: "Acme", InstrumentId: intPtr(1), Size: decimal.NewFromInt(5)},
	}}
	a := newFakeAssembler(rows)

	if _, err := a.Assemble(ctx, reports.AssembleRequest{MeetingRef: "RCM-2", Kind: models.DocumentKindRatingSheet}); err != nil {
		t.Fatalf("unfiltered: %v", err)
	}
	if rows.lastCompanyFilter != nil {
		t.Fatalf("no company filter expected")
	}

	data, err := a.Assemble(ctx, reports.AssembleRequest{MeetingRef: "RCM-2", CompanyRef: "C-1", Kind: models.DocumentKindRatingSheet})
	if err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if rows.lastCompanyFilter == nil || *rows.lastCompanyFilter != 11 {
		t.Fatalf("company filter=%v want 11", rows.lastCompanyFilter)
	}
	if data.Company == nil || data.Company.Name != "Acme" {
		t.Fatalf("company not resolved: %+v", data.Company)
	}
}

func TestAssemble_MinutesAttendeesAndVotes(t *testing.T) {
	ctx := context.Background()
	rows := &fakeRows{
		minutes: []*reports.MinutesRow{
			{CompanyId: 11, Cin: "L1", CompanyName: "Acme", InstrumentId: intPtr(100), CommitteeRating: "AA"},
			{CompanyId: 12, Cin: "L2", CompanyName: "Beta", InstrumentId: intPtr(200), CommitteeRating: "BBB+"},
			{CompanyId: 11, Cin: "L1", CompanyName: "Acme", InstrumentId: intPtr(101), CommitteeRating: "A1+"},
		},
		attendees: []*reports.MinutesAttendeeRow{
			{MemberName: strPtr("Dr. Rao"), Designation: "Chairman", IsChairman: true, IsPresent: true},
			{MemberName: strPtr("Ms. Iyer"), Designation: "Member", IsPresent: true},
			{MemberName: nil, Designation: "Member"},
			{MemberName: strPtr("Ms. Iyer"), Designation: "Member", IsPresent: true},
			{MemberName: strPtr("Mr. Shah"), Designation: "Chairman", IsChairman: true, IsPresent: false},
		},
		votes: []*reports.MinutesVoteRow{
			{InstrumentId: 100, MemberName: "Dr. Rao", Vote: "AA"},
			{InstrumentId: 100, MemberName: "Ms. Iyer", Vote: "AA-", Remark: strPtr("liquidity")},
			{InstrumentId: 200, MemberName: "Dr. Rao", Vote: "BBB+"},
		},
	}
	a := newFakeAssembler(rows)

	data, err := a.Assemble(ctx, reports.AssembleRequest{MeetingRef: "RCM-2", Kind: models.DocumentKindMinutes})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(data.Groups) != 2 || data.Groups[0].Company.Cin != "L1" || len(data.Groups[0].Instruments) != 2 {
		t.Fatalf("groups=%+v", data.Groups)
	}
	if len(data.Attendees) != 3 {
		t.Fatalf("attendees=%+v want 3", data.Attendees)
	}
	if data.Chairman == nil || data.Chairman.Name != "Dr. Rao" {
		t.Fatalf("chairman=%+v", data.Chairman)
	}
	votes := data.Groups[0].Instruments[0].Votes
	if len(votes) != 2 || votes[1].Remark != "liquidity" {
		t.Fatalf("votes of instrument 100=%+v", votes)
	}
	if len(data.Groups[0].Instruments[1].Votes) != 0 {
		t.Fatalf("instrument 101 has no votes")
	}
}
