package approval

import "github.com/dukerupert/choreus/internal/model"

// BuildLedger creates one approval record per roster member, in roster
// order. The requester's record is marked as such; everyone else starts
// pending.
func BuildLedger(members []model.Member, requesterID string) []model.Approval {
	ledger := make([]model.Approval, 0, len(members))
	for _, m := range members {
		state := model.ApprovalPending
		if m.ID == requesterID {
			state = model.ApprovalRequester
		}
		ledger = append(ledger, model.Approval{
			MemberID:   m.ID,
			MemberName: m.Name,
			State:      state,
		})
	}
	return ledger
}
