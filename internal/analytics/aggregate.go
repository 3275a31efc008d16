package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/claims-dashboard/backend/internal/models"
)

// TopReasonsLimit is how many denial reasons the dashboard shows.
const TopReasonsLimit = 10

// UnknownReason labels claims without a denial reason.
const UnknownReason = "Unknown"

// ComputeTotals counts rows and sums the three amount columns. Missing
// amounts count as zero.
func ComputeTotals(ds *models.Dataset) models.Totals {
	t := models.Totals{
		Claims:   ds.Len(),
		Claimed:  decimal.Zero,
		Approved: decimal.Zero,
		Denied:   decimal.Zero,
	}
	for i := range ds.Claims {
		c := &ds.Claims[i]
		t.Claimed = t.Claimed.Add(c.Claimed())
		t.Approved = t.Approved.Add(c.Approved())
		t.Denied = t.Denied.Add(c.Denied())
	}
	return t
}

// StatusBreakdown counts rows per claim status, most frequent first. Equal
// counts keep first-seen order. Rows without a status are not counted.
func StatusBreakdown(ds *models.Dataset) []models.Bucket {
	g := newGroups()
	for i := range ds.Claims {
		status := ds.Claims[i].ClaimStatus
		if status == "" {
			continue
		}
		g.add(status, decimal.NewFromInt(1))
	}
	buckets := g.buckets()
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value.GreaterThan(buckets[j].Value)
	})
	return buckets
}

// DeniedByRegion sums denied amounts per region in ascending region order.
// Rows without a region are not counted.
func DeniedByRegion(ds *models.Dataset) []models.Bucket {
	g := newGroups()
	for i := range ds.Claims {
		c := &ds.Claims[i]
		if c.Region == "" {
			continue
		}
		g.add(c.Region, c.Denied())
	}
	buckets := g.buckets()
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Label < buckets[j].Label
	})
	return buckets
}

// MonthlyTrend sums denied amounts per calendar month of the claim date,
// oldest month first. Rows without a valid date are skipped. Months between
// the first and last bucket with no claims are reported as zero.
func MonthlyTrend(ds *models.Dataset) []models.Bucket {
	sums := make(map[models.ClaimDate]decimal.Decimal)
	for i := range ds.Claims {
		c := &ds.Claims[i]
		if !c.ClaimDate.Valid {
			continue
		}
		month := c.ClaimDate.MonthStart()
		sums[month] = sums[month].Add(c.Denied())
	}
	return monthSeries(sums)
}

// monthSeries lays out per-month sums as a contiguous ascending series.
func monthSeries(sums map[models.ClaimDate]decimal.Decimal) []models.Bucket {
	buckets := []models.Bucket{}
	if len(sums) == 0 {
		return buckets
	}
	var first, last models.ClaimDate
	for m := range sums {
		if !first.Valid || m.Before(first) {
			first = m
		}
		if !last.Valid || m.After(last) {
			last = m
		}
	}
	for m := first; !m.After(last); m = models.DateOf(m.Time.AddDate(0, 1, 0)) {
		value, ok := sums[m]
		if !ok {
			value = decimal.Zero
		}
		buckets = append(buckets, models.Bucket{Label: m.String(), Value: value})
	}
	return buckets
}

// TopDenialReasons sums denied amounts per denial reason, largest first,
// and keeps at most limit groups. A limit of zero or less keeps every group.
// Empty reasons are grouped as UnknownReason. Equal sums keep first-seen
// order.
func TopDenialReasons(ds *models.Dataset, limit int) []models.Bucket {
	g := newGroups()
	for i := range ds.Claims {
		c := &ds.Claims[i]
		g.add(reasonLabel(c.DenialReason), c.Denied())
	}
	buckets := g.buckets()
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value.GreaterThan(buckets[j].Value)
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

func reasonLabel(reason string) string {
	if reason == "" {
		return UnknownReason
	}
	return reason
}

// Summarize computes every dashboard aggregate for ds.
func Summarize(ds *models.Dataset) *models.Summary {
	return &models.Summary{
		Totals:           ComputeTotals(ds),
		StatusBreakdown:  StatusBreakdown(ds),
		DeniedByRegion:   DeniedByRegion(ds),
		MonthlyTrend:     MonthlyTrend(ds),
		TopDenialReasons: TopDenialReasons(ds, TopReasonsLimit),
	}
}

// groups accumulates sums per label, remembering first-seen order.
type groups struct {
	order []string
	sums  map[string]decimal.Decimal
}

func newGroups() *groups {
	return &groups{sums: make(map[string]decimal.Decimal)}
}

func (g *groups) add(label string, v decimal.Decimal) {
	sum, ok := g.sums[label]
	if !ok {
		g.order = append(g.order, label)
		sum = decimal.Zero
	}
	g.sums[label] = sum.Add(v)
}

func (g *groups) buckets() []models.Bucket {
	out := make([]models.Bucket, 0, len(g.order))
	for _, label := range g.order {
		out = append(out, models.Bucket{Label: label, Value: g.sums[label]})
	}
	return out
}
