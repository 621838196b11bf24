package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/choreus/internal/database"
	"github.com/dukerupert/choreus/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email, nickname, householdID string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Create(context.Background(), NewUser{
		Email:        email,
		PasswordHash: "hash",
		Nickname:     nickname,
		HouseholdID:  householdID,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
