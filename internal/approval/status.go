package approval

import "github.com/dukerupert/choreus/internal/model"

// Aggregate computes a request's status from its approval records.
// Requester records are ignored. A single rejection vetoes; approval
// needs every remaining record approved, which an empty set satisfies.
func Aggregate(approvals []model.Approval) model.RequestStatus {
	relevant := 0
	approved := 0
	for _, a := range approvals {
		switch a.State {
		case model.ApprovalRequester:
			continue
		case model.ApprovalRejected:
			return model.RequestRejected
		case model.ApprovalApproved:
			approved++
		}
		relevant++
	}
	if approved == relevant {
		return model.RequestApproved
	}
	return model.RequestPending
}
