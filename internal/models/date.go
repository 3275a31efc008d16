package models

import (
	"bytes"
	"strconv"
	"time"
)

// DateLayout is the calendar date format used on the wire and in exports.
const DateLayout = "2006-01-02"

// ClaimDate is a calendar date that may be missing. The zero value is the
// missing marker.
type ClaimDate struct {
	Time  time.Time
	Valid bool
}

// NewClaimDate returns a valid date at midnight UTC.
func NewClaimDate(year int, month time.Month, day int) ClaimDate {
	return ClaimDate{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Valid: true}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) ClaimDate {
	return NewClaimDate(t.Year(), t.Month(), t.Day())
}

func (d ClaimDate) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// MonthStart returns the first day of the date's month.
func (d ClaimDate) MonthStart() ClaimDate {
	return NewClaimDate(d.Time.Year(), d.Time.Month(), 1)
}

// Before reports whether d is strictly before o. Both must be valid.
func (d ClaimDate) Before(o ClaimDate) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly after o. Both must be valid.
func (d ClaimDate) After(o ClaimDate) bool {
	return d.Time.After(o.Time)
}

// MarshalJSON renders a missing date as null.
func (d ClaimDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a "YYYY-MM-DD" string or null.
func (d *ClaimDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = ClaimDate{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}
