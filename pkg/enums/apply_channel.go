package enums

import "fmt"

// ApplyChannel is how applicants submit against a job posting.
type ApplyChannel string

const (
	ApplyChannelKoor    ApplyChannel = "koor"
	ApplyChannelEmail   ApplyChannel = "email"
	ApplyChannelWebsite ApplyChannel = "website"
)

var validApplyChannels = []ApplyChannel{
	ApplyChannelKoor,
	ApplyChannelEmail,
	ApplyChannelWebsite,
}

// String implements fmt.Stringer.
func (a ApplyChannel) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApplyChannel.
func (a ApplyChannel) IsValid() bool {
	for _, candidate := range validApplyChannels {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApplyChannel converts raw input into an ApplyChannel.
func ParseApplyChannel(value string) (ApplyChannel, error) {
	for _, candidate := range validApplyChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid apply channel %q", value)
}
