package models

import "github.com/google/uuid"

// SavedJob bookmarks a job for a job seeker. Saving twice is rejected;
// unsave hard-deletes so the pair can be saved again.
type SavedJob struct {
	EntityHeader

	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_saved_jobs_user_job,where:is_removed = false"`
	JobID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_saved_jobs_user_job,where:is_removed = false"`
	Job    *Job      `gorm:"foreignKey:JobID"`
}

// SavedTender bookmarks a tender for a vendor. Notified marks that the
// expiry reminder for this pair has already been sent.
type SavedTender struct {
	EntityHeader

	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_saved_tenders_user_tender,where:is_removed = false"`
	TenderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_saved_tenders_user_tender,where:is_removed = false"`
	Tender   *Tender   `gorm:"foreignKey:TenderID"`
	Notified bool      `gorm:"column:notified;not null;default:false"`
}
