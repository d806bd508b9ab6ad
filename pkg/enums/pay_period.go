package enums

import "fmt"

// PayPeriod is the unit a job budget is quoted in.
type PayPeriod string

const (
	PayPeriodHourly  PayPeriod = "hourly"
	PayPeriodDaily   PayPeriod = "daily"
	PayPeriodWeekly  PayPeriod = "weekly"
	PayPeriodMonthly PayPeriod = "monthly"
	PayPeriodYearly  PayPeriod = "yearly"
)

var validPayPeriods = []PayPeriod{
	PayPeriodHourly,
	PayPeriodDaily,
	PayPeriodWeekly,
	PayPeriodMonthly,
	PayPeriodYearly,
}

// String implements fmt.Stringer.
func (p PayPeriod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayPeriod.
func (p PayPeriod) IsValid() bool {
	for _, candidate := range validPayPeriods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayPeriod converts raw input into a PayPeriod.
func ParsePayPeriod(value string) (PayPeriod, error) {
	for _, candidate := range validPayPeriods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pay period %q", value)
}
