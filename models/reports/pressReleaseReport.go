package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/shopspring/decimal"
)

type PressReleaseRow struct {
	CompanyId        int
	CompanyName      string
	Cin              string
	InstrumentId     *int
	InstrumentLabel  string
	Size             decimal.Decimal
	CommitteeRating  string
	CommitteeOutlook string
	IsLongTerm       bool
	IsShortTerm      bool
	AnalystName      *string
	GroupHeadName    *string
}

func extractPressReleaseRow(r *PressReleaseRow) Extracted {
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
			CommitteeRating:  r.CommitteeRating,
			CommitteeOutlook: r.CommitteeOutlook,
			IsLongTerm:       r.IsLongTerm,
			IsShortTerm:      r.IsShortTerm,
		}
	}
	return e
}

func (s GormRowSource) PressReleaseRows(ctx context.Context, meetingId int, companyId int) ([]*PressReleaseRow, error) {
	sql := `
SELECT
	c.id AS company_id,
	c.name AS company_name,
	c.cin,
	mi.id AS instrument_id,
	mi.instrument_label,
	mi.size,
	mi.committee_rating,
	mi.committee_outlook,
	mi.is_long_term,
	mi.is_short_term,
	mi.analyst_name,
	mi.group_head_name
FROM
	meeting_instruments mi
	JOIN companies c ON c.id = mi.company_id
WHERE
	mi.meeting_id = @meetingId
	AND mi.company_id = @companyId
	AND mi.is_active = true
	AND c.is_active = true
ORDER BY
	mi.id
`
	var rows []*PressReleaseRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
		"companyId": companyId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func assemblePressRelease(ctx context.Context, a *Assembler, data *ReportData) (int, error) {
	if data.Company == nil {
		return 0, fmt.Errorf("company reference is required: %w", utils.ErrorNoCompanyFound)
	}
	rows, err := a.Rows.PressReleaseRows(ctx, data.Meeting.ID, data.Company.ID)
	if err != nil {
		return 0, err
	}
	data.Groups = Aggregate(rows, extractPressReleaseRow)
	return len(rows), nil
}
