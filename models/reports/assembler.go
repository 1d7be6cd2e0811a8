package reports

import (
	"context"
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

type PolicySource interface {
	Policy(kind string) (config.KindPolicy, bool)
}

type kindAssembler struct {
	// company filters the rows when given; RequiresCompany makes it mandatory
	company    bool
	history    bool
	assembleFn func(ctx context.Context, a *Assembler, data *ReportData) (int, error)
}

var kindAssemblers = map[models.DocumentKind]kindAssembler{
	models.DocumentKindAgenda:                   {history: true, assembleFn: assembleAgenda},
	models.DocumentKindRatingSheet:              {company: true, assembleFn: assembleRatingSheet},
	models.DocumentKindMinutes:                  {history: true, assembleFn: assembleMinutes},
	models.DocumentKindPressRelease:             {company: true, assembleFn: assemblePressRelease},
	models.DocumentKindRatingLetter:             {company: true, assembleFn: assembleCompanyLetter},
	models.DocumentKindProvisionalCommunication: {company: true, assembleFn: assembleCompanyLetter},
}

// Assembler builds the ReportData of one document kind from the resolved
// meeting, the optional company, the predecessor meeting and the kind's rows.
type Assembler struct {
	Records  RecordStore
	Rows     RowSource
	Policies PolicySource
}

func (a *Assembler) Assemble(ctx context.Context, req AssembleRequest) (*ReportData, error) {
	ka, ok := kindAssemblers[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown document kind %q", utils.ErrorInvalidRequest, req.Kind)
	}
	policy, ok := a.Policies.Policy(string(req.Kind))
	if !ok {
		return nil, fmt.Errorf("%w: no policy for document kind %q", utils.ErrorInvalidRequest, req.Kind)
	}

	meeting, err := a.Records.FindMeeting(ctx, req.MeetingRef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Kind, err)
	}
	data := &ReportData{
		Kind:    req.Kind,
		Title:   policy.Title,
		Meeting: meeting,
		Groups:  make([]*CompanyGroup, 0),
	}

	companyRef := strings.TrimSpace(req.CompanyRef)
	if policy.RequiresCompany && companyRef == "" {
		return nil, fmt.Errorf("%s: company reference is required: %w", req.Kind, utils.ErrorNoCompanyFound)
	}
	if (ka.company || policy.RequiresCompany) && companyRef != "" {
		company, err := a.Records.FindCompany(ctx, companyRef)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Kind, err)
		}
		data.Company = company
	}

	if ka.history || policy.RequireHistorical {
		previous, err := a.Records.FindPreviousMeeting(ctx, meeting)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Kind, err)
		}
		if previous == nil && policy.RequireHistorical {
			return nil, fmt.Errorf("%s: meeting %s has no predecessor: %w", req.Kind, meeting.Ref, utils.ErrorNoHistoricalData)
		}
		data.Previous = previous
	}

	rowCount, err := ka.assembleFn(ctx, a, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Kind, err)
	}
	if rowCount == 0 && policy.RequireRows {
		return nil, fmt.Errorf("%s: meeting %s: %w", req.Kind, meeting.Ref, utils.ErrorNoRowsFound)
	}
	return data, nil
}

// NewAssembler wires the gorm-backed record store and row source.
func NewAssembler(policies PolicySource) *Assembler {
	db := config.GetDB()
	return &Assembler{
		Records:  GormRecordStore{DB: db},
		Rows:     GormRowSource{DB: db},
		Policies: policies,
	}
}
