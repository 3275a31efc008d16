package models

import "github.com/shopspring/decimal"

// Bucket is one (group key, value) pair of an aggregate result.
type Bucket struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Totals are the scalar metrics of a dataset.
type Totals struct {
	Claims   int             `json:"claims"`
	Claimed  decimal.Decimal `json:"claimed"`
	Approved decimal.Decimal `json:"approved"`
	Denied   decimal.Decimal `json:"denied"`
}

// Summary bundles everything the dashboard renders for one filter selection.
type Summary struct {
	Totals           Totals   `json:"totals"`
	StatusBreakdown  []Bucket `json:"statusBreakdown"`
	DeniedByRegion   []Bucket `json:"deniedByRegion"`
	MonthlyTrend     []Bucket `json:"monthlyTrend"`
	TopDenialReasons []Bucket `json:"topDenialReasons"`
}
