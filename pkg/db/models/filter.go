package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// JobFilter is a saved search for jobs. When IsNotification is set the
// advance-filter cron matches new postings against it and notifies the owner.
type JobFilter struct {
	EntityHeader

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title  string    `gorm:"size:255;not null"`

	Country          string          `gorm:"size:255"`
	City             string          `gorm:"size:255"`
	IsFullTime       bool            `gorm:"not null;default:false"`
	IsPartTime       bool            `gorm:"not null;default:false"`
	HasContract      bool            `gorm:"not null;default:false"`
	SalaryMin        decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	SalaryMax        decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	Duration         string          `gorm:"size:255"`
	Experience       string          `gorm:"size:255"`
	HighestEducation string          `gorm:"size:255"`
	WorkingDays      string          `gorm:"size:255"`
	Categories       pq.StringArray  `gorm:"type:text[]"`

	IsNotification bool `gorm:"not null;default:false"`
}

// TenderFilter is a saved search for tenders, the vendor-side counterpart
// of JobFilter.
type TenderFilter struct {
	EntityHeader

	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title  string    `gorm:"size:255;not null"`

	Country     string          `gorm:"size:255"`
	City        string          `gorm:"size:255"`
	BudgetMin   decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	BudgetMax   decimal.Decimal `gorm:"type:numeric(12,2);default:0"`
	Deadline    *time.Time
	Categories  pq.StringArray `gorm:"type:text[]"`
	TenderTypes pq.StringArray `gorm:"type:text[]"`
	Sectors     pq.StringArray `gorm:"type:text[]"`
	Tags        pq.StringArray `gorm:"type:text[]"`

	IsNotification bool `gorm:"not null;default:false"`
}
