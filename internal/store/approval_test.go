package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dukerupert/choreus/internal/approval"
	"github.com/dukerupert/choreus/internal/database"
	"github.com/dukerupert/choreus/internal/model"
)

// Two members approving at the same moment must serialize on the
// database: the request resolves once and its points apply once.
func TestConcurrentDecisionsApplyPointsOnce(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "choreus.db"))
	if err != nil {
		t.Fatalf("open file db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tasks := NewTaskStore(db)
	requests := NewRequestStore(db)
	outcomes := NewOutcomeStore(db)
	svc := approval.NewService(approval.Config{}, NewTxManager(db), requests, tasks,
		NewUserStore(db), outcomes, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := range 10 {
		ctx := context.Background()
		household := fmt.Sprintf("home-%d", i)
		ann := createTestUser(t, db, fmt.Sprintf("ann%d@example.com", i), "Ann", household)
		bob := createTestUser(t, db, fmt.Sprintf("bob%d@example.com", i), "Bob", household)
		cat := createTestUser(t, db, fmt.Sprintf("cat%d@example.com", i), "Cat", household)

		points := 10
		task, err := tasks.Create(ctx, household, TaskInput{
			Title: "Dishes", Date: "2026-03-01", AssigneeID: ann.ID, Points: &points, CreatedBy: ann.ID,
		})
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		created, err := svc.Create(ctx, approval.Caller{UserID: ann.ID, HouseholdID: household},
			approval.CreateInput{TaskID: &task.ID, Delta: 5, Direction: model.DirectionIncrease})
		if err != nil {
			t.Fatalf("create request: %v", err)
		}

		var wg sync.WaitGroup
		results := make([]*approval.Result, 2)
		errs := make([]error, 2)
		for j, member := range []*model.User{bob, cat} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				caller := approval.Caller{UserID: member.ID, HouseholdID: household}
				results[j], errs[j] = svc.Decide(ctx, caller, created.ID, approval.DecisionInput{
					MemberID: member.ID, Decision: approval.DecisionApprove,
				})
			}()
		}
		wg.Wait()

		applied := 0
		for j, err := range errs {
			if err != nil {
				t.Fatalf("round %d: decision %d: %v", i, j, err)
			}
			if results[j].UpdatedTask != nil {
				applied++
			}
		}
		if applied != 1 {
			t.Errorf("round %d: updated_task returned %d times, want 1", i, applied)
		}

		got, err := tasks.GetByID(ctx, household, task.ID)
		if err != nil {
			t.Fatalf("get task: %v", err)
		}
		if got.Points != 15 {
			t.Errorf("round %d: points = %d, want 15", i, got.Points)
		}
		open, err := requests.ListByHousehold(ctx, household)
		if err != nil {
			t.Fatalf("list requests: %v", err)
		}
		if len(open) != 0 {
			t.Errorf("round %d: open requests = %d, want 0", i, len(open))
		}
		history, err := outcomes.ListByHousehold(ctx, household, 0)
		if err != nil {
			t.Fatalf("list outcomes: %v", err)
		}
		if len(history) != 1 || !history[0].PointsApplied || history[0].Status != model.RequestApproved {
			t.Errorf("round %d: outcomes = %+v, want one approved with points applied", i, history)
		}
	}
}
