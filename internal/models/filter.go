package models

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start ClaimDate `json:"start"`
	End   ClaimDate `json:"end"`
}

// Contains reports whether d is a valid date within the range.
func (r DateRange) Contains(d ClaimDate) bool {
	if !d.Valid {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// FilterSelection is the user's current filter. Empty Regions or Specialties
// disable that predicate; a nil DateRange disables the date predicate.
type FilterSelection struct {
	Regions     []string   `json:"regions"`
	Specialties []string   `json:"specialties"`
	DateRange   *DateRange `json:"dateRange,omitempty"`
}

// IsEmpty reports whether the selection lets every row through.
func (s FilterSelection) IsEmpty() bool {
	return len(s.Regions) == 0 && len(s.Specialties) == 0 && s.DateRange == nil
}

// FilterOptions lists the values a user can pick from for a dataset.
type FilterOptions struct {
	Regions     []string   `json:"regions"`
	Specialties []string   `json:"specialties"`
	DateRange   *DateRange `json:"dateRange,omitempty"`
}
