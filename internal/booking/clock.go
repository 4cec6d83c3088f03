package booking

import (
	"fmt"
	"time"
)

// MinuteOfDay counts minutes since local midnight.
type MinuteOfDay int

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// maxMinuteOfDay is the last representable minute of a day (23:59).
const maxMinuteOfDay = MinutesPerDay - 1

// ParseClock parses a zero-padded HH:MM wall-clock string into a
// MinuteOfDay. Unpadded hours and trailing text are rejected.
func ParseClock(value string) (MinuteOfDay, error) {
	if len(value) != len("15:04") {
		return 0, fmt.Errorf("booking: invalid clock value %q", value)
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("booking: invalid clock value %q: %w", value, err)
	}
	return MinuteOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// Clock renders the minute as an HH:MM string.
func (m MinuteOfDay) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Valid reports whether the minute falls within a single day.
func (m MinuteOfDay) Valid() bool {
	return m >= 0 && m <= maxMinuteOfDay
}

// Date identifies a local wall-clock calendar date without a time zone offset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO-8601 date string (2006-01-02).
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, fmt.Errorf("booking: invalid date %q: %w", value, err)
	}
	return Date{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()}, nil
}

// DateOf extracts the calendar date of the provided instant in its location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Weekday returns the day of week the date falls on.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// String renders the date in ISO-8601 form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d precedes other in calendar order.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// Equal reports whether two dates identify the same calendar day.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}
