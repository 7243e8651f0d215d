package domain

// User is the slice of the external user directory this core needs.
type User struct {
	ID                string `json:"id"`
	FirstName         string `json:"firstName,omitempty"`
	LastName          string `json:"lastName,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
}

// Language returns the preferred language, falling back to the baseline
// when the directory has none on record.
func (u User) Language() string {
	if u.PreferredLanguage == "" {
		return DefaultLanguage
	}
	return u.PreferredLanguage
}
