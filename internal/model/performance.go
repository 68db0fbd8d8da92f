package model

import "time"

// Performance metric categories.
const (
	CategoryPronunciation = "pronunciation"
	CategoryVocabulary    = "vocabulary"
	CategoryGrammar       = "grammar"
	CategoryConversation  = "conversation"
)

// PerformanceMetric is a standalone scored observation, independent of any
// lesson. Append-only; used for trend and summary aggregation.
type PerformanceMetric struct {
	ID       string         `json:"id"       db:"id"`
	UserID   string         `json:"userId"   db:"user_id"`
	Date     time.Time      `json:"date"     db:"date"`
	Category string         `json:"category" db:"category"`
	Score    float64        `json:"score"    db:"score"`
	Details  map[string]any `json:"details,omitempty" db:"details"` // stored as JSON
}

// ValidMetricCategory reports whether category is one of the accepted values.
func ValidMetricCategory(category string) bool {
	switch category {
	case CategoryPronunciation, CategoryVocabulary, CategoryGrammar, CategoryConversation:
		return true
	}
	return false
}

// CategorySummary is the running average of all metrics in one category.
type CategorySummary struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
}

// TrendPoint is the running average of all metrics recorded on one day
// (date in YYYY-MM-DD form).
type TrendPoint struct {
	Date    string  `json:"date"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// PerformanceSummary is the derived aggregation over a user's metrics:
// per-category averages, a 30-day daily trend, and overall totals.
type PerformanceSummary struct {
	CategoryData   []CategorySummary `json:"categoryData"`
	TrendData      []TrendPoint      `json:"trendData"`
	OverallAverage float64           `json:"overallAverage"`
	TotalSessions  int               `json:"totalSessions"`
}
