package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, formatted as YYYY-MM-DD.
// The zero value means "unset". Ordering by string comparison is valid
// because the layout is fixed-width.
type Date string

// ParseDate parses and normalizes s as a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Format(DateLayout)), nil
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == ""
}

// Valid reports whether d is a well-formed date.
func (d Date) Valid() bool {
	if d.IsZero() {
		return false
	}
	_, err := time.Parse(DateLayout, string(d))
	return err == nil
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d < other
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d > other
}

// Within reports whether d lies in the closed range [start, end].
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

func (d Date) String() string {
	return string(d)
}
