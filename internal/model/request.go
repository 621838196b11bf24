package model

import "time"

type ApprovalState string

const (
	ApprovalRequester ApprovalState = "requester"
	ApprovalPending   ApprovalState = "pending"
	ApprovalApproved  ApprovalState = "approved"
	ApprovalRejected  ApprovalState = "rejected"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Terminal reports whether the status ends the request's lifecycle.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Approval is one member's vote on a request.
type Approval struct {
	MemberID   string        `json:"member_id"`
	MemberName string        `json:"member_name"`
	State      ApprovalState `json:"state"`
	ActedAt    *time.Time    `json:"acted_at,omitempty"`
}

type Request struct {
	ID            string        `json:"id"`
	HouseholdID   string        `json:"household_id"`
	RequesterID   string        `json:"requester_id"`
	RequesterName string        `json:"requester_name"`
	TaskID        *string       `json:"task_id"`
	TaskTitle     string        `json:"task_title"`
	TaskDate      string        `json:"task_date"`
	Delta         int           `json:"delta"`
	Direction     Direction     `json:"direction"`
	Approvals     []Approval    `json:"approvals"`
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ApprovalIndex returns the position of memberID's record, or -1.
func (r *Request) ApprovalIndex(memberID string) int {
	for i, a := range r.Approvals {
		if a.MemberID == memberID {
			return i
		}
	}
	return -1
}

// RequestOutcome is the archived record of a resolved request.
type RequestOutcome struct {
	ID            string        `json:"id"`
	RequestID     string        `json:"request_id"`
	HouseholdID   string        `json:"household_id"`
	RequesterID   string        `json:"requester_id"`
	RequesterName string        `json:"requester_name"`
	TaskID        *string       `json:"task_id"`
	TaskTitle     string        `json:"task_title"`
	TaskDate      string        `json:"task_date"`
	Delta         int           `json:"delta"`
	Status        RequestStatus `json:"status"`
	PointsApplied bool          `json:"points_applied"`
	Approvals     []Approval    `json:"approvals"`
	ResolvedAt    time.Time     `json:"resolved_at"`
}
