package models

import (
	"time"

	"github.com/google/uuid"
)

// AppliedJob is a job seeker's submission against a job. ShortlistedAt and
// RejectedAt are mutually exclusive decision markers flipped atomically by
// the posting owner.
type AppliedJob struct {
	EntityHeader

	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_applied_jobs_user_job,where:is_removed = false"`
	User   *User     `gorm:"foreignKey:UserID"`
	JobID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_applied_jobs_user_job,where:is_removed = false"`
	Job    *Job      `gorm:"foreignKey:JobID"`

	ShortLetter string `gorm:"type:text"`

	ShortlistedAt *time.Time `gorm:"column:shortlisted_at"`
	RejectedAt    *time.Time `gorm:"column:rejected_at"`
	InterviewAt   *time.Time `gorm:"column:interview_at"`

	ResumeID *uuid.UUID `gorm:"type:uuid"`
	Resume   *Media     `gorm:"foreignKey:ResumeID"`
}

// Decided reports whether either decision marker is set.
func (a *AppliedJob) Decided() bool {
	return a.ShortlistedAt != nil || a.RejectedAt != nil
}

// EditableOn reports whether the applicant may still edit or revoke: no
// decision yet and created the same calendar day.
func (a *AppliedJob) EditableOn(now time.Time) bool {
	if a.Decided() {
		return false
	}
	y1, m1, d1 := a.CreatedAt.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// AppliedTender is a vendor's submission against a tender.
type AppliedTender struct {
	EntityHeader

	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_applied_tenders_user_tender,where:is_removed = false"`
	User     *User     `gorm:"foreignKey:UserID"`
	TenderID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_applied_tenders_user_tender,where:is_removed = false"`
	Tender   *Tender   `gorm:"foreignKey:TenderID"`

	ShortLetter string `gorm:"type:text"`

	ShortlistedAt *time.Time `gorm:"column:shortlisted_at"`
	RejectedAt    *time.Time `gorm:"column:rejected_at"`

	AttachmentID *uuid.UUID `gorm:"type:uuid"`
	Attachment   *Media     `gorm:"foreignKey:AttachmentID"`
}

// Decided reports whether either decision marker is set.
func (a *AppliedTender) Decided() bool {
	return a.ShortlistedAt != nil || a.RejectedAt != nil
}

// EditableOn mirrors AppliedJob.EditableOn.
func (a *AppliedTender) EditableOn(now time.Time) bool {
	if a.Decided() {
		return false
	}
	y1, m1, d1 := a.CreatedAt.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// BlackList marks a user as excluded from an employer's default application
// listings. One row per (employer, blacklisted user).
type BlackList struct {
	EntityHeader

	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_blacklists_pair"`
	BlacklistedUserID uuid.UUID `gorm:"column:blacklisted_user_id;type:uuid;not null;uniqueIndex:ux_blacklists_pair"`
	BlacklistedUser   *User     `gorm:"foreignKey:BlacklistedUserID"`
	Reason            string    `gorm:"type:text;not null"`
}
