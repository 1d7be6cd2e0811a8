package reports

import (
	"context"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/shopspring/decimal"
)

type RatingSheetRow struct {
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
	ExistingOutlook  string
	ProposedOutlook  string
	AnalystName      *string
	GroupHeadName    *string
}

func extractRatingSheetRow(r *RatingSheetRow) Extracted {
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
			ExistingOutlook:  r.ExistingOutlook,
			ProposedOutlook:  r.ProposedOutlook,
		}
	}
	return e
}

func (s GormRowSource) RatingSheetRows(ctx context.Context, meetingId int, companyId *int) ([]*RatingSheetRow, error) {
	sqlTemplate := `
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
	mi.existing_outlook,
	mi.proposed_outlook,
	mi.analyst_name,
	mi.group_head_name
FROM
	meeting_instruments mi
	JOIN companies c ON c.id = mi.company_id
WHERE
	mi.meeting_id = @meetingId
	AND mi.is_active = true
	AND c.is_active = true
	{{- if .companyId }} AND mi.company_id = @companyId {{- end }}
ORDER BY
	mi.id
`
	sql, err := utils.ExecTemplate(sqlTemplate, map[string]interface{}{
		"companyId": utils.DereferencePtr(companyId),
	})
	if err != nil {
		return nil, err
	}

	var rows []*RatingSheetRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
		"companyId": utils.DereferencePtr(companyId),
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func assembleRatingSheet(ctx context.Context, a *Assembler, data *ReportData) (int, error) {
	var companyId *int
	if data.Company != nil {
		companyId = &data.Company.ID
	}
	rows, err := a.Rows.RatingSheetRows(ctx, data.Meeting.ID, companyId)
	if err != nil {
		return 0, err
	}
	data.Groups = Aggregate(rows, extractRatingSheetRow)
	return len(rows), nil
}
