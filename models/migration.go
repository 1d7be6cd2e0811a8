package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates the upstream tables the report queries read from and
// the generated_documents registry.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Meeting{}, &Company{},
		&MeetingInstrument{}, &MeetingAttendee{}, &CommitteeVote{},
		&GeneratedDocument{},
	)
}
