package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreus/internal/model"
)

const maxInviteAttempts = 10

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var chores string
	var inviteCode sql.NullString
	err := scanner.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Nickname, &u.Role, &u.Color,
		&chores, &u.HouseholdID, &inviteCode, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.InviteCode = inviteCode.String
	if err := json.Unmarshal([]byte(chores), &u.PreferredChores); err != nil {
		return nil, fmt.Errorf("decode preferred chores: %w", err)
	}
	if u.PreferredChores == nil {
		u.PreferredChores = []string{}
	}
	return &u, nil
}

const userCols = `id, email, password_hash, nickname, role, color, preferred_chores, household_id, invite_code, created_at, updated_at`

// NewUser holds the fields required to register an account.
type NewUser struct {
	Email        string
	PasswordHash string
	Nickname     string
	HouseholdID  string
}

// UserPatch lists profile fields to change; nil fields are left alone.
type UserPatch struct {
	Nickname        *string
	Color           *string
	Role            *string
	PreferredChores *[]string
}

func (s *UserStore) Create(ctx context.Context, in NewUser) (*model.User, error) {
	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, nickname, role, color, preferred_chores, household_id, invite_code, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, '[]', ?, ?, ?, ?)`,
		id, in.Email, in.PasswordHash, in.Nickname, model.DefaultRole, model.DefaultColor,
		in.HouseholdID, code, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByInviteCode(ctx context.Context, code string) (*model.User, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE invite_code = ?`, code)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by invite code: %w", err)
	}
	return u, nil
}

func (s *UserStore) Update(ctx context.Context, id string, p UserPatch) (*model.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.Color != nil {
		u.Color = *p.Color
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.PreferredChores != nil {
		u.PreferredChores = *p.PreferredChores
	}
	chores, err := json.Marshal(u.PreferredChores)
	if err != nil {
		return nil, fmt.Errorf("encode preferred chores: %w", err)
	}
	_, err = conn(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET nickname = ?, color = ?, role = ?, preferred_chores = ?, updated_at = ? WHERE id = ?`,
		u.Nickname, u.Color, u.Role, string(chores), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(ctx, id)
}

// EnsureInviteCode assigns an invite code to a user who has none.
func (s *UserStore) EnsureInviteCode(ctx context.Context, u *model.User) error {
	if u.InviteCode != "" {
		return nil
	}
	code, err := s.uniqueInviteCode(ctx)
	if err != nil {
		return err
	}
	_, err = conn(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET invite_code = ? WHERE id = ? AND invite_code IS NULL`, code, u.ID)
	if err != nil {
		return fmt.Errorf("set invite code: %w", err)
	}
	u.InviteCode = code
	return nil
}

// ListByHousehold returns a household's members in join order.
func (s *UserStore) ListByHousehold(ctx context.Context, householdID string) ([]model.User, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE household_id = ? ORDER BY created_at, rowid`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListMembers returns the household roster used to build approval ledgers.
func (s *UserStore) ListMembers(ctx context.Context, householdID string) ([]model.Member, error) {
	users, err := s.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	members := make([]model.Member, 0, len(users))
	for _, u := range users {
		members = append(members, model.Member{ID: u.ID, Name: u.DisplayName()})
	}
	return members, nil
}

func (s *UserStore) uniqueInviteCode(ctx context.Context) (string, error) {
	for range maxInviteAttempts {
		code, err := generateInviteCode()
		if err != nil {
			return "", err
		}
		existing, err := s.GetByInviteCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate invite code: no free code after %d attempts", maxInviteAttempts)
}
