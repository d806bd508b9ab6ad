package enums

import "fmt"

// PostingStatus is the lifecycle state shared by jobs and tenders. Expired is
// derived from the deadline at read time and never written by the core.
type PostingStatus string

const (
	PostingStatusActive   PostingStatus = "active"
	PostingStatusInactive PostingStatus = "inactive"
	PostingStatusHold     PostingStatus = "hold"
	PostingStatusDeleted  PostingStatus = "deleted"
	PostingStatusExpired  PostingStatus = "expired"
)

var validPostingStatuses = []PostingStatus{
	PostingStatusActive,
	PostingStatusInactive,
	PostingStatusHold,
	PostingStatusDeleted,
	PostingStatusExpired,
}

// String implements fmt.Stringer.
func (p PostingStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PostingStatus.
func (p PostingStatus) IsValid() bool {
	for _, candidate := range validPostingStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePostingStatus converts raw input into a PostingStatus.
func ParsePostingStatus(value string) (PostingStatus, error) {
	for _, candidate := range validPostingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid posting status %q", value)
}
