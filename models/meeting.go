package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"gorm.io/gorm"
)

// Meeting is owned by the committee scheduling module; this package only reads it.
type Meeting struct {
	ID            int       `gorm:"primary_key" json:"id"`
	Ref           string    `gorm:"size:64;not null;uniqueIndex" json:"ref"`
	MeetingTypeId int       `gorm:"not null;index" json:"meeting_type_id"`
	CategoryId    int       `gorm:"not null;index" json:"category_id"`
	MeetingAt     time.Time `gorm:"not null" json:"meeting_at"`
	Sequence      int       `gorm:"not null;index" json:"sequence"`
	Venue         string    `gorm:"size:255" json:"venue"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HistoricalMeetingRef points to the meeting preceding another one in its series.
type HistoricalMeetingRef struct {
	ID        int       `json:"id"`
	MeetingAt time.Time `json:"meeting_at"`
	Sequence  int       `json:"sequence"`
}

func meetingCacheKey(ref string) string {
	return "meeting:ref:" + ref
}

// GetMeetingByRef resolves an external meeting reference. Inactive meetings
// are reported exactly like missing ones.
func GetMeetingByRef(ctx context.Context, db *gorm.DB, ref string) (*Meeting, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, utils.ErrorNoMeetingFound
	}

	var meeting Meeting
	key := meetingCacheKey(ref)
	ttl := config.ResolverCacheTTL()
	if ttl > 0 {
		if exists, err := config.GetRedisObject(key, &meeting); err == nil && exists && meeting.IsActive {
			return &meeting, nil
		}
	}

	err := db.WithContext(ctx).Where("ref = ? AND is_active = ?", ref, true).First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorNoMeetingFound
		}
		return nil, err
	}

	if ttl > 0 {
		if err := config.SetRedisObject(key, &meeting, ttl); err != nil {
			config.LogError(nil, "models", "GetMeetingByRef", "cache meeting", ref, err)
		}
	}
	return &meeting, nil
}

// GetPreviousMeeting returns the most recent active meeting before m whose
// type and category are less than or equal to m's. The comparison on type and
// category is deliberately non-strict. A first meeting in its series returns
// (nil, nil).
func GetPreviousMeeting(ctx context.Context, db *gorm.DB, m *Meeting) (*HistoricalMeetingRef, error) {
	if m == nil {
		return nil, errors.New("meeting is required")
	}

	sql := `
SELECT
	id,
	meeting_at,
	sequence
FROM
	meetings
WHERE
	sequence < @sequence
	AND meeting_type_id <= @meetingTypeId
	AND category_id <= @categoryId
	AND is_active = true
	AND id <> @id
ORDER BY
	sequence DESC
LIMIT 1
`
	var previous []*HistoricalMeetingRef
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"sequence":      m.Sequence,
		"meetingTypeId": m.MeetingTypeId,
		"categoryId":    m.CategoryId,
		"id":            m.ID,
	}).Scan(&previous).Error; err != nil {
		return nil, fmt.Errorf("previous meeting lookup: %w", err)
	}
	if len(previous) == 0 {
		return nil, nil
	}
	return previous[0], nil
}
