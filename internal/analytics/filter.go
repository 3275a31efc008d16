package analytics

import (
	"github.com/claims-dashboard/backend/internal/models"
)

// Apply returns the rows of ds matching every predicate of sel, in their
// original order. Empty region or specialty lists match everything; a date
// range only matches rows with a valid claim date inside it.
func Apply(ds *models.Dataset, sel models.FilterSelection) *models.Dataset {
	regions := toSet(sel.Regions)
	specialties := toSet(sel.Specialties)

	indexes := make([]int, 0, ds.Len())
	for i := range ds.Claims {
		if matches(&ds.Claims[i], regions, specialties, sel.DateRange) {
			indexes = append(indexes, i)
		}
	}
	return ds.Subset(indexes)
}

func matches(c *models.Claim, regions, specialties map[string]struct{}, dates *models.DateRange) bool {
	if regions != nil {
		if _, ok := regions[c.Region]; !ok {
			return false
		}
	}
	if specialties != nil {
		if _, ok := specialties[c.ProviderSpecialty]; !ok {
			return false
		}
	}
	if dates != nil && !dates.Contains(c.ClaimDate) {
		return false
	}
	return true
}

// toSet returns nil for an empty list so callers can tell "no filter" apart.
func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Options lists the distinct non-empty regions and specialties of ds in
// first-seen order, and the span of its valid claim dates.
func Options(ds *models.Dataset) models.FilterOptions {
	opts := models.FilterOptions{
		Regions:     []string{},
		Specialties: []string{},
	}
	seenRegion := make(map[string]struct{})
	seenSpecialty := make(map[string]struct{})
	var span *models.DateRange

	for i := range ds.Claims {
		c := &ds.Claims[i]
		if c.Region != "" {
			if _, ok := seenRegion[c.Region]; !ok {
				seenRegion[c.Region] = struct{}{}
				opts.Regions = append(opts.Regions, c.Region)
			}
		}
		if c.ProviderSpecialty != "" {
			if _, ok := seenSpecialty[c.ProviderSpecialty]; !ok {
				seenSpecialty[c.ProviderSpecialty] = struct{}{}
				opts.Specialties = append(opts.Specialties, c.ProviderSpecialty)
			}
		}
		if !c.ClaimDate.Valid {
			continue
		}
		if span == nil {
			span = &models.DateRange{Start: c.ClaimDate, End: c.ClaimDate}
			continue
		}
		if c.ClaimDate.Before(span.Start) {
			span.Start = c.ClaimDate
		}
		if c.ClaimDate.After(span.End) {
			span.End = c.ClaimDate
		}
	}
	opts.DateRange = span
	return opts
}
