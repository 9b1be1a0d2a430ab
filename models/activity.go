package models

import "time"

// ActivityType enumerates the kinds of immersion sessions a user can log.
type ActivityType string

const (
	ActivityWatching   ActivityType = "watching"
	ActivityReading    ActivityType = "reading"
	ActivityListening  ActivityType = "listening"
	ActivityGrammar    ActivityType = "grammar"
	ActivityVocabulary ActivityType = "vocabulary"
	ActivityWriting    ActivityType = "writing"
	ActivityPlaying    ActivityType = "playing"
	ActivityOther      ActivityType = "other"
)

// ActivityTypes lists every valid activity type, in display order.
var ActivityTypes = []ActivityType{
	ActivityWatching,
	ActivityReading,
	ActivityListening,
	ActivityGrammar,
	ActivityVocabulary,
	ActivityWriting,
	ActivityPlaying,
	ActivityOther,
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityWatching, ActivityReading, ActivityListening, ActivityGrammar,
		ActivityVocabulary, ActivityWriting, ActivityPlaying, ActivityOther:
		return true
	}
	return false
}

// DateLayout is the calendar-day format used for activity dates. Days are
// bucketed in the owning user's timezone, so no clock component is stored.
const DateLayout = "2006-01-02"

// Activity is a logged, completed immersion session.
type Activity struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Type         ActivityType `json:"activityType"`
	MediaID      string       `json:"mediaId,omitempty"`
	LanguageCode string       `json:"languageCode"`
	Duration     int          `json:"duration"` // minutes, 1..1440
	Date         string       `json:"date"`     // DateLayout, user-timezone day
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ActivityInput carries create/update fields for an activity. MediaID may
// reference either a TMDB-backed media row or the shadow row of a custom
// media entry; both live in the same table.
type ActivityInput struct {
	Type         ActivityType `json:"activityType"`
	MediaID      string       `json:"mediaId,omitempty"`
	LanguageCode string       `json:"languageCode"`
	Duration     int          `json:"duration"`
	Date         string       `json:"date"`
	Notes        string       `json:"notes,omitempty"`
}
