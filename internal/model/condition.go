package model

import "time"

const (
	MinScore     = 0
	MaxScore     = 10
	DefaultScore = 5
)

type Condition struct {
	ID               string    `json:"id"`
	HouseholdID      string    `json:"household_id"`
	UserID           string    `json:"user_id"`
	Date             string    `json:"date"`
	MorningScore     int       `json:"morning_score"`
	PreChoreScore    *int      `json:"pre_chore_score"`
	MorningLabel     string    `json:"morning_label"`
	PreChoreLabel    string    `json:"pre_chore_label"`
	PreChoreDisabled bool      `json:"pre_chore_disabled"`
	Note             string    `json:"note"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
