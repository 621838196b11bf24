package store

import (
	"context"
	"regexp"
	"testing"
)

var inviteCodePattern = regexp.MustCompile(`^HOME-[0-9A-Z]{4}[1-9][0-9]{2}$`)

func TestUserCreate(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "alice@example.com", "Alice", "h1")

	if u.ID == "" {
		t.Error("expected non-empty ID")
	}
	if u.Role != "family member" {
		t.Errorf("role = %q, want %q", u.Role, "family member")
	}
	if u.Color != "#FF7F50" {
		t.Errorf("color = %q, want %q", u.Color, "#FF7F50")
	}
	if len(u.PreferredChores) != 0 || u.PreferredChores == nil {
		t.Errorf("preferred chores = %v, want empty slice", u.PreferredChores)
	}
	if !inviteCodePattern.MatchString(u.InviteCode) {
		t.Errorf("invite code = %q, want HOME-XXXX999", u.InviteCode)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "alice@example.com", "Alice", "h1")

	_, err := NewUserStore(db).Create(context.Background(), NewUser{Email: "alice@example.com", PasswordHash: "x", Nickname: "A2", HouseholdID: "h2"})
	if err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestUserLookups(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()
	created := createTestUser(t, db, "alice@example.com", "Alice", "h1")

	u, err := us.GetByEmail(ctx, "alice@example.com")
	if err != nil || u == nil || u.ID != created.ID {
		t.Fatalf("GetByEmail = %v, %v", u, err)
	}
	u, err = us.GetByInviteCode(ctx, created.InviteCode)
	if err != nil || u == nil || u.ID != created.ID {
		t.Fatalf("GetByInviteCode = %v, %v", u, err)
	}
	u, err = us.GetByID(ctx, "missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for missing user, got %+v", u)
	}
}

func TestUserUpdate(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	created := createTestUser(t, db, "alice@example.com", "Alice", "h1")

	nick := "Ally"
	chores := []string{"dishes", "laundry"}
	u, err := us.Update(context.Background(), created.ID, UserPatch{Nickname: &nick, PreferredChores: &chores})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Nickname != "Ally" {
		t.Errorf("nickname = %q, want %q", u.Nickname, "Ally")
	}
	if len(u.PreferredChores) != 2 || u.PreferredChores[1] != "laundry" {
		t.Errorf("preferred chores = %v", u.PreferredChores)
	}
	if u.Color != "#FF7F50" {
		t.Errorf("color changed to %q", u.Color)
	}
}

func TestEnsureInviteCode(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	ctx := context.Background()
	created := createTestUser(t, db, "alice@example.com", "Alice", "h1")

	if _, err := db.Exec(`UPDATE users SET invite_code = NULL WHERE id = ?`, created.ID); err != nil {
		t.Fatalf("clear invite code: %v", err)
	}
	u, _ := us.GetByID(ctx, created.ID)
	if u.InviteCode != "" {
		t.Fatalf("invite code = %q, want empty", u.InviteCode)
	}
	if err := us.EnsureInviteCode(ctx, u); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !inviteCodePattern.MatchString(u.InviteCode) {
		t.Errorf("invite code = %q", u.InviteCode)
	}
	stored, _ := us.GetByID(ctx, created.ID)
	if stored.InviteCode != u.InviteCode {
		t.Errorf("stored code = %q, want %q", stored.InviteCode, u.InviteCode)
	}
}

func TestListMembers(t *testing.T) {
	db := setupTestDB(t)
	us := NewUserStore(db)
	a := createTestUser(t, db, "a@example.com", "Ann", "h1")
	b := createTestUser(t, db, "b@example.com", "", "h1")
	createTestUser(t, db, "c@example.com", "Cat", "h2")

	members, err := us.ListMembers(context.Background(), "h1")
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].ID != a.ID || members[1].ID != b.ID {
		t.Errorf("order = %v, want join order", members)
	}
	if members[1].Name != "b@example.com" {
		t.Errorf("name = %q, want email fallback", members[1].Name)
	}
}

func TestGenerateInviteCode(t *testing.T) {
	for range 50 {
		code, err := generateInviteCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !inviteCodePattern.MatchString(code) {
			t.Fatalf("code = %q does not match pattern", code)
		}
	}
}
