package enums

import "fmt"

// NotificationType enumerates the in-app notification channels.
type NotificationType string

const (
	NotificationTypeApplied           NotificationType = "applied"
	NotificationTypePasswordUpdate    NotificationType = "password_update"
	NotificationTypeShortlisted       NotificationType = "shortlisted"
	NotificationTypeRejected          NotificationType = "rejected"
	NotificationTypePlannedInterviews NotificationType = "planned_interviews"
	NotificationTypeMessage           NotificationType = "message"
	NotificationTypeAdvanceFilter     NotificationType = "advance_filter"
	NotificationTypeExpiredSaveJob    NotificationType = "expired_save_job"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeApplied,
	NotificationTypePasswordUpdate,
	NotificationTypeShortlisted,
	NotificationTypeRejected,
	NotificationTypePlannedInterviews,
	NotificationTypeMessage,
	NotificationTypeAdvanceFilter,
	NotificationTypeExpiredSaveJob,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
