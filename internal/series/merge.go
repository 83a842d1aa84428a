package series

import (
	"errors"
	"sort"
)

// ErrEmpty is returned by callers that require a non-empty merged series.
var ErrEmpty = errors.New("merged series is empty")

// Merge inner-joins tvl and analytics on Date. Rows follow the order of tvl;
// dates present on only one side are dropped, and an empty input on either
// side yields an empty result.
func Merge(tvl []TVLRecord, analytics []AnalyticsRecord) []MergedRecord {
	if len(tvl) == 0 || len(analytics) == 0 {
		return nil
	}

	byDate := make(map[Date]AnalyticsRecord, len(analytics))
	for _, a := range analytics {
		byDate[a.Date] = a
	}

	out := make([]MergedRecord, 0, min(len(tvl), len(analytics)))
	for _, t := range tvl {
		a, ok := byDate[t.Date]
		if !ok {
			continue
		}
		out = append(out, MergedRecord{
			Date:             t.Date,
			LockedValueUSD:   t.LockedValueUSD,
			ActiveUsers:      a.ActiveUsers,
			TransactionCount: a.TransactionCount,
			AvgGasFeeUSD:     a.AvgGasFeeUSD,
		})
	}
	return out
}

// NormalizeTVL sorts records ascending by date and keeps the last reading
// seen for each day.
func NormalizeTVL(in []TVLRecord) []TVLRecord {
	if len(in) == 0 {
		return nil
	}
	latest := make(map[Date]int, len(in))
	out := make([]TVLRecord, 0, len(in))
	for _, r := range in {
		if i, ok := latest[r.Date]; ok {
			out[i] = r
			continue
		}
		latest[r.Date] = len(out)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SortAnalytics orders records ascending by date in place.
func SortAnalytics(in []AnalyticsRecord) {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Date.Before(in[j].Date) })
}

// Last returns the final record of a merged series.
func Last(rows []MergedRecord) (MergedRecord, error) {
	if len(rows) == 0 {
		return MergedRecord{}, ErrEmpty
	}
	return rows[len(rows)-1], nil
}

// Tail returns at most n trailing records.
func Tail(rows []MergedRecord, n int) []MergedRecord {
	if n <= 0 || len(rows) == 0 {
		return []MergedRecord{}
	}
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]MergedRecord, n)
	copy(out, rows[len(rows)-n:])
	return out
}
