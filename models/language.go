package models

// Language is a study language selectable by users. Code is the ISO 639-1
// two-letter code; Name is the English display name.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// UserLanguage pairs a user's language with its primary flag for profile
// responses.
type UserLanguage struct {
	Language
	Primary bool `json:"primary"`
}
