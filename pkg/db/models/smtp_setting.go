package models

// SMTPSetting holds the outbound mail account. Admins edit it at runtime, so
// the email service re-reads the newest row before each send.
type SMTPSetting struct {
	EntityHeader

	Host     string `gorm:"size:255;not null"`
	Port     int    `gorm:"not null;default:587"`
	Username string `gorm:"size:255;not null"`
	Password string `gorm:"size:255;not null" json:"-"`
	FromName string `gorm:"size:255"`
	UseTLS   bool   `gorm:"not null;default:true"`
}
