package enums

import "fmt"

// DecideAction is the employer decision applied to an application.
type DecideAction string

const (
	DecideActionShortlisted       DecideAction = "shortlisted"
	DecideActionRejected          DecideAction = "rejected"
	DecideActionBlacklisted       DecideAction = "blacklisted"
	DecideActionPlannedInterviews DecideAction = "planned_interviews"
)

var validDecideActions = []DecideAction{
	DecideActionShortlisted,
	DecideActionRejected,
	DecideActionBlacklisted,
	DecideActionPlannedInterviews,
}

// String implements fmt.Stringer.
func (d DecideAction) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DecideAction.
func (d DecideAction) IsValid() bool {
	for _, candidate := range validDecideActions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDecideAction converts raw input into a DecideAction.
func ParseDecideAction(value string) (DecideAction, error) {
	for _, candidate := range validDecideActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid decide action %q", value)
}
