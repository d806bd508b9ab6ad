package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession is a server-side login row. Access tokens embed the session id
// as their jti claim, so expiring the row revokes every outstanding token
// minted for it. Rows are append-only; logout and password change set
// ExpireAt instead of deleting.
type UserSession struct {
	EntityHeader

	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	User      *User      `gorm:"foreignKey:UserID"`
	IPAddress string     `gorm:"type:text"`
	UserAgent string     `gorm:"type:text"`
	ExpireAt  *time.Time `gorm:"column:expire_at"`
}

// Active reports whether the session can still authenticate at the given time.
func (s *UserSession) Active(now time.Time) bool {
	return s.ExpireAt == nil || s.ExpireAt.After(now)
}
