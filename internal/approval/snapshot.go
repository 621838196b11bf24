package approval

import (
	"time"

	"github.com/dukerupert/choreus/internal/model"
)

// Snapshot is the client view of a request. Delta is signed and
// Approvals maps each member id to "requester", "approved", "rejected"
// or null while the member has not decided.
type Snapshot struct {
	ID          string              `json:"id"`
	Requester   string              `json:"requester"`
	RequesterID string              `json:"requester_id"`
	TaskID      *string             `json:"task_id"`
	TaskTitle   string              `json:"task_title"`
	TaskDate    string              `json:"task_date"`
	Delta       int                 `json:"delta"`
	Direction   model.Direction     `json:"direction"`
	Approvals   map[string]*string  `json:"approvals"`
	Status      model.RequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Result is returned by Create and Decide.
type Result struct {
	Snapshot
	UpdatedTask *model.TaskSummary `json:"updated_task"`
}

func NewSnapshot(r *model.Request) Snapshot {
	approvals := make(map[string]*string, len(r.Approvals))
	for _, a := range r.Approvals {
		if a.State == model.ApprovalPending {
			approvals[a.MemberID] = nil
			continue
		}
		state := string(a.State)
		approvals[a.MemberID] = &state
	}
	return Snapshot{
		ID:          r.ID,
		Requester:   r.RequesterName,
		RequesterID: r.RequesterID,
		TaskID:      r.TaskID,
		TaskTitle:   r.TaskTitle,
		TaskDate:    r.TaskDate,
		Delta:       SignedDelta(r.Delta, r.Direction),
		Direction:   r.Direction,
		Approvals:   approvals,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
	}
}

// PendingMembers returns the ids of members who still have to decide.
func PendingMembers(r *model.Request) []string {
	var ids []string
	for _, a := range r.Approvals {
		if a.State == model.ApprovalPending {
			ids = append(ids, a.MemberID)
		}
	}
	return ids
}
