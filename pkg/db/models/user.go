package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// User is the canonical identity entity. At least one of Email and
// MobileNumber is present; each is unique among non-removed rows. The
// password hash never crosses a serializer boundary.
type User struct {
	EntityHeader

	Email        *string             `gorm:"type:text;uniqueIndex:ux_users_email,where:is_removed = false"`
	MobileNumber *string             `gorm:"type:text;uniqueIndex:ux_users_mobile,where:is_removed = false"`
	CountryCode  *string             `gorm:"type:text"`
	PasswordHash string              `gorm:"column:password_hash;not null" json:"-"`
	Role         enums.Role          `gorm:"type:text;not null"`
	Source       enums.AccountSource `gorm:"type:text;not null;default:'app'"`

	OTP          *string    `gorm:"column:otp" json:"-"`
	OTPCreatedAt *time.Time `gorm:"column:otp_created_at" json:"-"`

	Name           string     `gorm:"type:text"`
	ProfileImageID *uuid.UUID `gorm:"column:profile_image_id;type:uuid"`
	ProfileImage   *Media     `gorm:"foreignKey:ProfileImageID"`

	IsVerified bool `gorm:"column:is_verified;not null;default:false"`
	IsActive   bool `gorm:"column:is_active;not null;default:true"`
	IsOnline   bool `gorm:"column:is_online;not null;default:false"`

	// Notification preferences.
	GetEmail        bool `gorm:"column:get_email;not null;default:true"`
	GetNotification bool `gorm:"column:get_notification;not null;default:true"`
}

// HasIdentifier reports whether the account carries a login identifier.
func (u *User) HasIdentifier() bool {
	return (u.Email != nil && *u.Email != "") || (u.MobileNumber != nil && *u.MobileNumber != "")
}

// JobSeekerProfile carries the attributes the apply flow requires to be
// complete before an application is accepted.
type JobSeekerProfile struct {
	EntityHeader

	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	User   *User     `gorm:"foreignKey:UserID"`

	Gender           *string    `gorm:"type:text"`
	DOB              *time.Time `gorm:"column:dob"`
	EmploymentStatus *string    `gorm:"type:text"`
	Country          *string    `gorm:"type:text"`
	City             *string    `gorm:"type:text"`
	HighestEducation *string    `gorm:"type:text"`
	MarketingInfo    bool       `gorm:"column:marketing_info;not null;default:false"`
}

// MissingFields lists the profile attributes the apply flow still needs.
func (p *JobSeekerProfile) MissingFields(userName string) []string {
	var missing []string
	if userName == "" {
		missing = append(missing, "name")
	}
	checks := []struct {
		name  string
		value *string
	}{
		{"gender", p.Gender},
		{"employment_status", p.EmploymentStatus},
		{"country", p.Country},
		{"city", p.City},
		{"highest_education", p.HighestEducation},
	}
	for _, c := range checks {
		if c.value == nil || *c.value == "" {
			missing = append(missing, c.name)
		}
	}
	if p.DOB == nil {
		missing = append(missing, "dob")
	}
	return missing
}
