package reports

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"github.com/shopspring/decimal"
)

// CompanyLetterRow backs both the rating letter and the provisional
// communication; the two differ only in wording.
type CompanyLetterRow struct {
	CompanyId        int
	CompanyName      string
	Cin              string
	Email            string
	Phone            string
	AddressLine1     string
	AddressLine2     string
	City             string
	State            string
	Pincode          string
	InstrumentId     *int
	InstrumentLabel  string
	Size             decimal.Decimal
	AssignmentNature string
	ExistingRating   string
	CommitteeRating  string
	CommitteeOutlook string
	IsLongTerm       bool
	IsShortTerm      bool
}

func extractCompanyLetterRow(r *CompanyLetterRow) Extracted {
	e := Extracted{
		GroupKey: CompanyKey(r.Cin, r.CompanyId),
		Company: CompanyIdentity{
			Id:      r.CompanyId,
			Name:    r.CompanyName,
			Cin:     r.Cin,
			Email:   r.Email,
			Phone:   utils.FormatPhoneNumber(r.Phone, utils.CountryCode),
			Address: models.JoinAddress(r.AddressLine1, r.AddressLine2, r.City, r.State, r.Pincode),
		},
	}
	if r.InstrumentId != nil {
		e.Instrument = &InstrumentLine{
			ID:               *r.InstrumentId,
			Label:            r.InstrumentLabel,
			Size:             r.Size,
			AssignmentNature: r.AssignmentNature,
			ExistingRating:   r.ExistingRating,
			CommitteeRating:  r.CommitteeRating,
			CommitteeOutlook: r.CommitteeOutlook,
			IsLongTerm:       r.IsLongTerm,
			IsShortTerm:      r.IsShortTerm,
		}
	}
	return e
}

func (s GormRowSource) CompanyLetterRows(ctx context.Context, meetingId int, companyId int) ([]*CompanyLetterRow, error) {
	sql := `
SELECT
	c.id AS company_id,
	c.name AS company_name,
	c.cin,
	c.email,
	c.phone,
	c.address_line1,
	c.address_line2,
	c.city,
	c.state,
	c.pincode,
	mi.id AS instrument_id,
	mi.instrument_label,
	mi.size,
	mi.assignment_nature,
	mi.existing_rating,
	mi.committee_rating,
	mi.committee_outlook,
	mi.is_long_term,
	mi.is_short_term
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
	var rows []*CompanyLetterRow
	if err := s.DB.WithContext(ctx).Raw(sql, map[string]interface{}{
		"meetingId": meetingId,
		"companyId": companyId,
	}).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func assembleCompanyLetter(ctx context.Context, a *Assembler, data *ReportData) (int, error) {
	if data.Company == nil {
		return 0, fmt.Errorf("company reference is required: %w", utils.ErrorNoCompanyFound)
	}
	rows, err := a.Rows.CompanyLetterRows(ctx, data.Meeting.ID, data.Company.ID)
	if err != nil {
		return 0, err
	}
	data.Groups = Aggregate(rows, extractCompanyLetterRow)
	return len(rows), nil
}
