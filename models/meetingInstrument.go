package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MeetingInstrument is one rated facility of a company placed before a
// committee meeting.
type MeetingInstrument struct {
	ID               int             `gorm:"primary_key" json:"id"`
	MeetingId        int             `gorm:"not null;index" json:"meeting_id"`
	CompanyId        int             `gorm:"not null;index" json:"company_id"`
	InstrumentLabel  string          `gorm:"size:255;not null" json:"instrument_label"`
	Size             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"size"`
	AssignmentNature string          `gorm:"size:100" json:"assignment_nature"`
	ExistingRating   string          `gorm:"size:100" json:"existing_rating"`
	ProposedRating   string          `gorm:"size:100" json:"proposed_rating"`
	CommitteeRating  string          `gorm:"size:100" json:"committee_rating"`
	IsLongTerm       bool            `json:"is_long_term"`
	IsShortTerm      bool            `json:"is_short_term"`
	ExistingOutlook  string          `gorm:"size:100" json:"existing_outlook"`
	ProposedOutlook  string          `gorm:"size:100" json:"proposed_outlook"`
	CommitteeOutlook string          `gorm:"size:100" json:"committee_outlook"`
	AnalystName      string          `gorm:"size:255" json:"analyst_name"`
	GroupHeadName    string          `gorm:"size:255" json:"group_head_name"`
	IsActive         bool            `gorm:"not null" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type MeetingAttendee struct {
	ID          int       `gorm:"primary_key" json:"id"`
	MeetingId   int       `gorm:"not null;index" json:"meeting_id"`
	MemberName  string    `gorm:"size:255" json:"member_name"`
	Designation string    `gorm:"size:255" json:"designation"`
	IsChairman  bool      `json:"is_chairman"`
	IsPresent   bool      `json:"is_present"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type CommitteeVote struct {
	ID           int       `gorm:"primary_key" json:"id"`
	MeetingId    int       `gorm:"not null;index" json:"meeting_id"`
	InstrumentId int       `gorm:"not null;index" json:"instrument_id"`
	MemberName   string    `gorm:"size:255;not null" json:"member_name"`
	Vote         string    `gorm:"size:100" json:"vote"`
	Remark       string    `gorm:"type:text" json:"remark"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
