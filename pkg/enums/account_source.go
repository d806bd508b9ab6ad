package enums

import "fmt"

// AccountSource records which channel created the account.
type AccountSource string

const (
	AccountSourceApp      AccountSource = "app"
	AccountSourceApple    AccountSource = "apple"
	AccountSourceFacebook AccountSource = "facebook"
	AccountSourceGoogle   AccountSource = "google"
)

var validAccountSources = []AccountSource{
	AccountSourceApp,
	AccountSourceApple,
	AccountSourceFacebook,
	AccountSourceGoogle,
}

// String implements fmt.Stringer.
func (s AccountSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known AccountSource.
func (s AccountSource) IsValid() bool {
	for _, candidate := range validAccountSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAccountSource converts raw input into an AccountSource.
func ParseAccountSource(value string) (AccountSource, error) {
	for _, candidate := range validAccountSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account source %q", value)
}
