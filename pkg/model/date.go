package model

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used by stored records.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day. Values that cannot be
// parsed are kept verbatim so a single odd record still renders.
type Date struct {
	t   time.Time
	raw string
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. Anything else is
// preserved as raw text and reported through Valid.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t: t}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return NewDate(y, m, d)
	}
	return Date{raw: s}
}

// IsZero reports whether no date was recorded.
func (d Date) IsZero() bool { return d.t.IsZero() && d.raw == "" }

// Valid reports whether the date parsed as a calendar date.
func (d Date) Valid() bool { return !d.t.IsZero() }

// Time returns the date at midnight UTC; zero when invalid.
func (d Date) Time() time.Time { return d.t }

// Year returns the calendar year, or 0 when the date is not valid.
func (d Date) Year() int {
	if d.t.IsZero() {
		return 0
	}
	return d.t.Year()
}

// Before compares two valid dates. Invalid dates never compare before.
func (d Date) Before(o Date) bool {
	if !d.Valid() || !o.Valid() {
		return false
	}
	return d.t.Before(o.t)
}

func (d Date) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON writes the date as a quoted string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts a string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	unq, err := strconv.Unquote(s)
	if err != nil {
		// Numbers and other scalars are kept as written.
		*d = Date{raw: s}
		return nil
	}
	*d = ParseDate(unq)
	return nil
}

// MarshalText supports YAML and form encoders.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText is the inverse of MarshalText.
func (d *Date) UnmarshalText(b []byte) error {
	*d = ParseDate(string(b))
	return nil
}
