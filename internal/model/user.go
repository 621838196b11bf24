package model

import "time"

const (
	DefaultRole  = "family member"
	DefaultColor = "#FF7F50"
)

type User struct {
	ID              string    `json:"user_id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Nickname        string    `json:"nickname"`
	Role            string    `json:"role"`
	Color           string    `json:"color"`
	PreferredChores []string  `json:"preferred_chores"`
	HouseholdID     string    `json:"household_id"`
	InviteCode      string    `json:"invite_code"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DisplayName is the name shown to other household members.
func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Email
}

// Member is one entry of a household roster.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
