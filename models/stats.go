package models

// ActivityDay is one calendar day's aggregated duration, as produced by the
// persistence layer for the stats service.
type ActivityDay struct {
	Date    string `json:"date"` // DateLayout
	Minutes int    `json:"minutes"`
}

// TypeTotal aggregates minutes for one activity type.
type TypeTotal struct {
	Type    ActivityType `json:"activityType"`
	Minutes int          `json:"minutes"`
}

// Stats is the aggregated view over a user's activity history.
type Stats struct {
	TotalMinutes  int           `json:"totalMinutes"`
	CurrentStreak int           `json:"currentStreak"`
	LongestStreak int           `json:"longestStreak"`
	Heatmap       []ActivityDay `json:"heatmap"`
	ByType        []TypeTotal   `json:"byType,omitempty"`
}
