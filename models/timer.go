package models

import "time"

// ActivityTimer is an in-progress immersion session tracked by start time.
// EndedAt is nil while the timer is running; a user may have at most one
// running timer.
type ActivityTimer struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Type         ActivityType `json:"activityType"`
	MediaID      string       `json:"mediaId,omitempty"`
	LanguageCode string       `json:"languageCode"`
	StartedAt    time.Time    `json:"startedAt"`
	EndedAt      *time.Time   `json:"endedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Running reports whether the timer has not been stopped yet.
func (t ActivityTimer) Running() bool {
	return t.EndedAt == nil
}

// TimerInput carries the fields needed to start a timer.
type TimerInput struct {
	Type         ActivityType `json:"activityType"`
	MediaID      string       `json:"mediaId,omitempty"`
	LanguageCode string       `json:"languageCode"`
}

// StoppedTimer is the result of stopping a timer: the closed timer row plus
// the activity it was converted into.
type StoppedTimer struct {
	Timer    ActivityTimer `json:"timer"`
	Activity Activity      `json:"activity"`
}
