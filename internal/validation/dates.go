package validation

import (
	"fmt"
	"time"
)

// DayDateLayout is the wire format for calendar day parameters.
const DayDateLayout = "2006-01-02"

// ParseDayDate parses a YYYY-MM-DD calendar day string.
func ParseDayDate(value string) (time.Time, error) {
	day, err := time.Parse(DayDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day, nil
}

// ValidateDateRange checks that from does not come after to.
func ValidateDateRange(from, to time.Time) error {
	if from.After(to) {
		return fmt.Errorf("start date must not be after end date")
	}
	return nil
}
