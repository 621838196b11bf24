package store

import (
	"context"
	"errors"
	"testing"
)

func TestRunInTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTxManager(db)
	us := NewUserStore(db)
	ctx := context.Background()

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := us.Create(ctx, NewUser{Email: "a@example.com", PasswordHash: "x", Nickname: "A", HouseholdID: "h1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if u, _ := us.GetByEmail(ctx, "a@example.com"); u != nil {
		t.Error("user should have been rolled back")
	}
}

func TestRunInTxNestedSavepoint(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTxManager(db)
	ctx := context.Background()
	u := createTestUser(t, db, "a@example.com", "Ann", "h1")
	ts := NewTaskStore(db)
	task := createTestTask(t, ts, u, "Dishes", "2026-03-01")

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := ts.UpdatePoints(ctx, "h1", task.ID, 20); err != nil {
			return err
		}
		inner := tm.RunInTx(ctx, func(ctx context.Context) error {
			if err := ts.UpdatePoints(ctx, "h1", task.ID, 99); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(inner, boom) {
			t.Errorf("inner err = %v, want boom", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer: %v", err)
	}

	got, _ := ts.GetByID(ctx, "h1", task.ID)
	if got.Points != 20 {
		t.Errorf("points = %d, want 20 (outer kept, inner rolled back)", got.Points)
	}
}
