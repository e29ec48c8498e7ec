package domain

import "time"

type User struct {
	ID          string           `json:"id"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	Email       string           `json:"email"`
	Avatar      string           `json:"avatar,omitempty"`
	Provider    string           `json:"provider"`
	Preferences *UserPreferences `json:"preferences,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type UserPreferences struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
	VoiceEnabled  bool   `json:"voiceEnabled"`
	DataMode      bool   `json:"dataMode"`
}

// FullName returns the display name for the user.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
