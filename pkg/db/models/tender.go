package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// Tender is a procurement posting created by an employer or an admin. The
// set-valued facets drive both faceted search and suggestion scoring.
type Tender struct {
	EntityHeader

	TenderID string    `gorm:"column:tender_id;type:text;not null;uniqueIndex"`
	Slug     string    `gorm:"type:text;not null;uniqueIndex"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index"`
	User     *User     `gorm:"foreignKey:UserID"`

	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`

	BudgetCurrency string          `gorm:"type:text;default:'USD'"`
	BudgetAmount   decimal.Decimal `gorm:"type:numeric(14,2)"`

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

	Tags        pq.StringArray `gorm:"type:text[]"`
	Categories  pq.StringArray `gorm:"type:text[]"`
	TenderTypes pq.StringArray `gorm:"column:tender_types;type:text[]"`
	Sectors     pq.StringArray `gorm:"type:text[]"`

	Attachments []TenderAttachment `gorm:"foreignKey:TenderID"`
}

// Expired reports whether the deadline has passed.
func (t *Tender) Expired(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now.Truncate(24*time.Hour))
}

// TenderAttachment links a Media row to a tender; detach clears TenderID.
type TenderAttachment struct {
	EntityHeader

	TenderID *uuid.UUID `gorm:"type:uuid;index"`
	MediaID  uuid.UUID  `gorm:"type:uuid;not null"`
	Media    *Media     `gorm:"foreignKey:MediaID"`
}
