// Package analytics filters a claims dataset and computes the dashboard
// aggregates over the result.
//
// The free functions (Apply, ComputeTotals, StatusBreakdown, DeniedByRegion,
// MonthlyTrend, TopDenialReasons, Summarize) are pure: they never modify
// their input and return freshly allocated results.
//
// A View binds those operations to one session's canonical dataset. Two
// engines exist: MemoryView evaluates in process and DuckView answers the
// same queries from a session-scoped DuckDB file. Both return identical
// results, including group order.
package analytics
