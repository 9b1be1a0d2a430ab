package models

import "time"

// DefaultTimezone is applied to accounts that never picked one.
const DefaultTimezone = "UTC"

// User models a FluencyTrail account. The password hash never leaves the
// server; confirmation and reset tokens are kept out of JSON for the same
// reason.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Timezone        string    `json:"timezone"`
	PrimaryLanguage string    `json:"primaryLanguage,omitempty"`
	Languages       []string  `json:"languages,omitempty"`
	Confirmed       bool      `json:"confirmed"`
	PasswordHash    string    `json:"-"`
	ConfirmToken    string    `json:"-"`
	ResetToken      string    `json:"-"`
	ResetExpires    time.Time `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Location resolves the user's IANA timezone, falling back to UTC when the
// stored value is empty or invalid.
func (u User) Location() *time.Location {
	tz := u.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
