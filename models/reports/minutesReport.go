package reports

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/shopspring/decimal"
)

type MinutesRow struct {
	CompanyId        int
	CompanyName      string
	Cin              string
	InstrumentId     *int
	InstrumentLabel  string
	Size             decimal.Decimal
	AssignmentNature string
	ExistingRating   string
	ProposedRating   string
	CommitteeRating  string
	IsLongTerm       bool
	IsShortTerm      bool
	ExistingOutlook  string
	ProposedOutlook  string
	CommitteeOutlook string
	AnalystName      *string
	GroupHeadName    *string
}

type MinutesAttendeeRow struct {
	MemberName  *string
	Designation string
	IsChairman  bool
	IsPresent   bool
}

type MinutesVoteRow struct {
	InstrumentId int
	MemberName   string
	Vote         string
	Remark       *string
}

func extractMinutesRow(r *MinutesRow) Extracted {
	e := Extracted{
		GroupKey: CompanyKey(r.Cin, r.CompanyId),
		Company:  CompanyIdentity{Id: r.CompanyId, Name: r.CompanyName, Cin: r.Cin},
		Attendees: []AttendeeRecord{
			{Name: utils.DereferencePtr(r.AnalystName), Role: RoleAnalyst, Present: true},
			{Name: utils.DereferencePtr(r.GroupHeadName), Role: RoleGroupHead, Present: true},
		},
	}
	if r.InstrumentId != nil {
		e.Instrument = &InstrumentLine{
			ID:               *r.InstrumentId,
			Label:            r.InstrumentLabel,
			Size:             r.Size,
			AssignmentNature: r.AssignmentNature,
			ExistingRating:   r.ExistingRating,
			ProposedRating:   r.ProposedRating,
			CommitteeRating:  r.CommitteeRating,
			IsLongTerm:       r.IsLongTerm,
			IsShortTerm:      r.IsShortTerm,
			ExistingOutlook:  r.ExistingOutlook,
			ProposedOutlook:  r.ProposedOutlook,
			CommitteeOutlook: r.CommitteeOutlook,
		}
	}
	return e
}

func (s GormRowSource) MinutesRows(ctx context.Context, meetingId int) ([]*MinutesRow, error) {
	sql := `
SELECT
	c.id AS company_id,
	c.name AS company_name,
	c.cin,
	mi.id AS instrument_id,
	mi.instrument_label,
	mi.size,
	mi.assignment_nature,
	mi.existing_rating,
	mi.proposed_rating,
	mi.committee_rating,
	mi.is_long_term,
	mi.is_short_term,
	mi.existing_outlook,
	mi.proposed_outlook,
	mi.committee_outlook,
	mi.analyst_name,
	mi.group_head_name
FROM
	meeting_instruments mi
	JOIN companies c ON c.id = mi.company_id
WHERE
	mi.meeting_id = @meetingId
	AND mi.is_active = true
	AND c.is_active = true
ORDER BY
	mi.id
`
	var rows []*MinutesRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s GormRowSource) MinutesAttendees(ctx context.Context, meetingId int) ([]*MinutesAttendeeRow, error) {
	sql := `
SELECT
	member_name,
	designation,
	is_chairman,
	is_present
FROM
	meeting_attendees
WHERE
	meeting_id = @meetingId
	AND is_active = true
ORDER BY
	is_chairman DESC, id
`
	var rows []*MinutesAttendeeRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s GormRowSource) MinutesVotes(ctx context.Context, meetingId int) ([]*MinutesVoteRow, error) {
	sql := `
SELECT
	instrument_id,
	member_name,
	vote,
	remark
FROM
	committee_votes
WHERE
	meeting_id = @meetingId
	AND is_active = true
ORDER BY
	instrument_id, id
`
	var rows []*MinutesVoteRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// meetingAttendees keeps the first record of each (name, designation) and
// drops rows without a name.
func meetingAttendees(rows []*MinutesAttendeeRow) []AttendeeRecord {
	attendees := make([]AttendeeRecord, 0, len(rows))
	seen := make(map[attendeeKey]bool)
	for _, r := range rows {
		a := AttendeeRecord{
			Name:       strings.TrimSpace(utils.DereferencePtr(r.MemberName)),
			Role:       r.Designation,
			Present:    r.IsPresent,
			IsChairman: r.IsChairman,
		}
		k := attendeeKey{name: a.Name, role: a.Role}
		if a.Name == "" || seen[k] {
			continue
		}
		seen[k] = true
		attendees = append(attendees, a)
	}
	return attendees
}

func assembleMinutes(ctx context.Context, a *Assembler, data *ReportData) (int, error) {
	rows, err := a.Rows.MinutesRows(ctx, data.Meeting.ID)
	if err != nil {
		return 0, err
	}
	data.Groups = Aggregate(rows, extractMinutesRow)

	attendeeRows, err := a.Rows.MinutesAttendees(ctx, data.Meeting.ID)
	if err != nil {
		return 0, err
	}
	data.Attendees = meetingAttendees(attendeeRows)
	data.Chairman = Chairman(data.Attendees)

	voteRows, err := a.Rows.MinutesVotes(ctx, data.Meeting.ID)
	if err != nil {
		return 0, err
	}
	votes := make(map[int][]VoteRecord)
	for _, v := range voteRows {
		votes[v.InstrumentId] = append(votes[v.InstrumentId], VoteRecord{
			MemberName: v.MemberName,
			Vote:       v.Vote,
			Remark:     utils.DereferencePtr(v.Remark),
		})
	}
	AttachVotes(data.Groups, votes)
	return len(rows), nil
}
