package claims

import (
	"strings"
	"time"

	"github.com/claims-dashboard/backend/internal/models"
)

// dateLayouts are tried in order after the YYYY-MM-DD fast path.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006/01/02",
}

// ParseClaimDate coerces raw to a calendar date. Values it cannot parse,
// including empty strings, yield the missing marker.
func ParseClaimDate(raw string) models.ClaimDate {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.ClaimDate{}
	}
	if d, ok := fastDate(s); ok {
		return d
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t)
		}
	}
	return models.ClaimDate{}
}

// fastDate parses exactly "YYYY-MM-DD" without going through time.Parse.
func fastDate(s string) (models.ClaimDate, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return models.ClaimDate{}, false
	}
	year := parseDigits(s[0:4])
	month := parseDigits(s[5:7])
	day := parseDigits(s[8:10])
	if year < 0 || month < 1 || month > 12 || day < 1 {
		return models.ClaimDate{}, false
	}
	d := models.NewClaimDate(year, time.Month(month), day)
	// time.Date normalizes overflow such as Feb 30; reject those.
	if d.Time.Day() != day || int(d.Time.Month()) != month {
		return models.ClaimDate{}, false
	}
	return d, true
}

// parseDigits parses an all-digit string. Returns -1 on error.
func parseDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if d > 9 {
			return -1
		}
		n = n*10 + int(d)
	}
	return n
}
