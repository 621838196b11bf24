package model

import "time"

const (
	DefaultTaskPoints = 10
	DefaultRepeat     = "none"
)

type Task struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Order       int       `json:"order"`
	Room        string    `json:"room"`
	Tip         string    `json:"tip"`
	AssigneeID  string    `json:"assignee_id"`
	Repeat      string    `json:"repeat"`
	EndDate     *string   `json:"end_date"`
	Category    string    `json:"category"`
	Memo        string    `json:"memo"`
	DurationID  string    `json:"duration_id"`
	EffortID    string    `json:"effort_id"`
	Points      int       `json:"points"`
	IsDone      bool      `json:"is_done"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskSummary is the slice of a task reported after a point change.
type TaskSummary struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Points int    `json:"points"`
}

func (t Task) Summary() TaskSummary {
	return TaskSummary{ID: t.ID, Date: t.Date, Points: t.Points}
}
