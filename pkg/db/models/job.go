package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// Job is the employer-owned work posting. JobID is the short human id in
// NNNN-NNNN form; Slug is stored and regenerated on explicit rename.
type Job struct {
	EntityHeader

	JobID  string    `gorm:"column:job_id;type:text;not null;uniqueIndex"`
	Slug   string    `gorm:"type:text;not null;uniqueIndex"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   *User     `gorm:"foreignKey:UserID"`

	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`

	BudgetCurrency  string          `gorm:"type:text;default:'USD'"`
	BudgetAmount    decimal.Decimal `gorm:"type:numeric(14,2)"`
	BudgetPayPeriod enums.PayPeriod `gorm:"type:text"`

	Country string `gorm:"type:text"`
	City    string `gorm:"type:text"`
	Address string `gorm:"type:text"`

	StartDate *time.Time `gorm:"column:start_date"`
	Deadline  *time.Time `gorm:"column:deadline;index"`

	Status        enums.PostingStatus `gorm:"type:text;not null;default:'active';index"`
	PostedByAdmin bool                `gorm:"column:posted_by_admin;not null;default:false"`

	CompanyName   string     `gorm:"type:text"`
	CompanyLogoID *uuid.UUID `gorm:"column:company_logo_id;type:uuid"`
	CompanyLogo   *Media     `gorm:"foreignKey:CompanyLogoID"`

	IsFullTime  bool `gorm:"column:is_full_time;not null;default:false"`
	IsPartTime  bool `gorm:"column:is_part_time;not null;default:false"`
	HasContract bool `gorm:"column:has_contract;not null;default:false"`

	ContactEmail           *string            `gorm:"type:text"`
	CCEmail                *string            `gorm:"column:cc_email;type:text"`
	ContactWhatsapp        *string            `gorm:"type:text"`
	WorkingDays            *string            `gorm:"type:text"`
	Duration               *string            `gorm:"type:text"`
	Experience             *string            `gorm:"type:text"`
	HighestEducation       *string            `gorm:"type:text"`
	ApplyThrough           enums.ApplyChannel `gorm:"column:apply_through;type:text;not null;default:'koor'"`
	ApplicationInstruction *string            `gorm:"type:text"`

	Categories pq.StringArray `gorm:"type:text[]"`
	Skills     pq.StringArray `gorm:"type:text[]"`

	Languages   []JobLanguage   `gorm:"foreignKey:JobID"`
	Attachments []JobAttachment `gorm:"foreignKey:JobID"`
}

// Expired reports whether the deadline has passed. The status column never
// stores this; it is derived at read time.
func (j *Job) Expired(now time.Time) bool {
	return j.Deadline != nil && j.Deadline.Before(now.Truncate(24*time.Hour))
}

// JobLanguage is one required language with its proficiency levels. Both
// levels must be present at create time.
type JobLanguage struct {
	EntityHeader

	JobID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Language string    `gorm:"type:text;not null"`
	Spoken   string    `gorm:"type:text;not null"`
	Written  string    `gorm:"type:text;not null"`
}

// JobAttachment links a Media row to a job. Detaching clears JobID instead of
// deleting, so the media survives for audit.
type JobAttachment struct {
	EntityHeader

	JobID   *uuid.UUID `gorm:"type:uuid;index"`
	MediaID uuid.UUID  `gorm:"type:uuid;not null"`
	Media   *Media     `gorm:"foreignKey:MediaID"`
}
