package reports

import (
	"bitbucket.org/mmdatafocus/ratings_backend/models"
	"github.com/shopspring/decimal"
)

const (
	RoleAnalyst   = "Analyst"
	RoleGroupHead = "Group Head"
)

type CompanyIdentity struct {
	Key     string `json:"key"`
	Id      int    `json:"id"`
	Name    string `json:"name"`
	Cin     string `json:"cin"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type VoteRecord struct {
	MemberName string `json:"memberName"`
	Vote       string `json:"vote"`
	Remark     string `json:"remark,omitempty"`
}

// InstrumentLine carries instrument columns as they came from the row.
// Size is never rounded and rating strings are never interpreted.
type InstrumentLine struct {
	ID               int             `json:"id"`
	Label            string          `json:"label"`
	Size             decimal.Decimal `json:"size"`
	AssignmentNature string          `json:"assignmentNature"`
	ExistingRating   string          `json:"existingRating"`
	ProposedRating   string          `json:"proposedRating"`
	CommitteeRating  string          `json:"committeeRating"`
	IsLongTerm       bool            `json:"isLongTerm"`
	IsShortTerm      bool            `json:"isShortTerm"`
	ExistingOutlook  string          `json:"existingOutlook"`
	ProposedOutlook  string          `json:"proposedOutlook"`
	CommitteeOutlook string          `json:"committeeOutlook"`
	Votes            []VoteRecord    `json:"votes,omitempty"`
}

// Term is "Long Term", "Short Term", "Long Term / Short Term" or empty.
func (l InstrumentLine) Term() string {
	switch {
	case l.IsLongTerm && l.IsShortTerm:
		return "Long Term / Short Term"
	case l.IsLongTerm:
		return "Long Term"
	case l.IsShortTerm:
		return "Short Term"
	}
	return ""
}

type AttendeeRecord struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Present    bool   `json:"present"`
	IsChairman bool   `json:"isChairman,omitempty"`
}

type CompanyGroup struct {
	Company     CompanyIdentity  `json:"company"`
	Instruments []InstrumentLine `json:"instruments"`
	Attendees   []AttendeeRecord `json:"attendees"`
}

type AssembleRequest struct {
	MeetingRef string
	CompanyRef string
	Kind       models.DocumentKind
}

// ReportData is everything a renderer needs for one document.
type ReportData struct {
	Kind      models.DocumentKind
	Title     string
	Meeting   *models.Meeting
	Company   *models.Company
	Previous  *models.HistoricalMeetingRef
	Groups    []*CompanyGroup
	Attendees []AttendeeRecord
	Chairman  *AttendeeRecord
}

// InstrumentCount is the number of instrument lines over all groups.
func (r *ReportData) InstrumentCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Instruments)
	}
	return n
}
