// internal/models/query_types.go
package models

import "time"

// InsightCategory buckets stored insights by the signal they feed.
type InsightCategory string

const (
	CategoryMarket     InsightCategory = "market"
	CategoryEducation  InsightCategory = "education"
	CategoryTrend      InsightCategory = "trend"
	CategoryLocation   InsightCategory = "location"
	CategoryNetworking InsightCategory = "networking"
	CategorySkills     InsightCategory = "skills"
)

var AllInsightCategories = []InsightCategory{
	CategoryMarket,
	CategoryEducation,
	CategoryTrend,
	CategoryLocation,
	CategoryNetworking,
	CategorySkills,
}

func (c InsightCategory) Valid() bool {
	for _, known := range AllInsightCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DateRange filters provider searches by recency.
type DateRange string

const (
	DateRangeAny   DateRange = ""
	DateRangeDay   DateRange = "day"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
	DateRangeYear  DateRange = "year"
)

// Since returns the lower time bound for the range relative to now, or the
// zero time for DateRangeAny and unknown values.
func (d DateRange) Since(now time.Time) time.Time {
	switch d {
	case DateRangeDay:
		return now.AddDate(0, 0, -1)
	case DateRangeWeek:
		return now.AddDate(0, 0, -7)
	case DateRangeMonth:
		return now.AddDate(0, -1, 0)
	case DateRangeYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}
