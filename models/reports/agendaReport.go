package reports

import (
	"context"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/shopspring/decimal"
)

type AgendaRow struct {
	CompanyId        int
	CompanyName      string
	Cin              string
	InstrumentId     *int
	InstrumentLabel  string
	Size             decimal.Decimal
	AssignmentNature string
	ExistingRating   string
	ProposedRating   string
	IsLongTerm       bool
	IsShortTerm      bool
	AnalystName      *string
	GroupHeadName    *string
}

func extractAgendaRow(r *AgendaRow) Extracted {
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
			IsLongTerm:       r.IsLongTerm,
			IsShortTerm:      r.IsShortTerm,
		}
	}
	return e
}

func (s GormRowSource) AgendaRows(ctx context.Context, meetingId int) ([]*AgendaRow, error) {
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
	mi.is_long_term,
	mi.is_short_term,
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
	var rows []*AgendaRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func assembleAgenda(ctx context.Context, a *Assembler, data *ReportData) (int, error) {
	rows, err := a.Rows.AgendaRows(ctx, data.Meeting.ID)
	if err != nil {
		return 0, err
	}
	data.Groups = Aggregate(rows, extractAgendaRow)
	return len(rows), nil
}
