package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreus/internal/model"
)

type ConditionStore struct {
	db *sql.DB
}

func NewConditionStore(db *sql.DB) *ConditionStore {
	return &ConditionStore{db: db}
}

func scanCondition(scanner interface{ Scan(...any) error }) (*model.Condition, error) {
	var c model.Condition
	var preChore sql.NullInt64
	var disabled int
	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.UserID, &c.Date, &c.MorningScore, &preChore,
		&c.MorningLabel, &c.PreChoreLabel, &disabled, &c.Note, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if preChore.Valid {
		v := int(preChore.Int64)
		c.PreChoreScore = &v
	}
	c.PreChoreDisabled = disabled != 0
	return &c, nil
}

const conditionCols = `id, household_id, user_id, date, morning_score, pre_chore_score,
	morning_label, pre_chore_label, pre_chore_disabled, note, created_at, updated_at`

// Upsert stores the condition for c.UserID on c.Date, replacing any
// earlier record for that day.
func (s *ConditionStore) Upsert(ctx context.Context, c model.Condition) (*model.Condition, error) {
	now := time.Now().UTC()
	_, err := conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO conditions (id, household_id, user_id, date, morning_score, pre_chore_score,
			morning_label, pre_chore_label, pre_chore_disabled, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
			household_id = excluded.household_id,
			morning_score = excluded.morning_score,
			pre_chore_score = excluded.pre_chore_score,
			morning_label = excluded.morning_label,
			pre_chore_label = excluded.pre_chore_label,
			pre_chore_disabled = excluded.pre_chore_disabled,
			note = excluded.note,
			updated_at = excluded.updated_at`,
		uuid.NewString(), c.HouseholdID, c.UserID, c.Date, c.MorningScore, c.PreChoreScore,
		c.MorningLabel, c.PreChoreLabel, boolToInt(c.PreChoreDisabled), c.Note, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert condition: %w", err)
	}
	return s.GetByDate(ctx, c.UserID, c.Date)
}

func (s *ConditionStore) GetByDate(ctx context.Context, userID, date string) (*model.Condition, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+conditionCols+` FROM conditions WHERE user_id = ? AND date = ?`, userID, date)
	c, err := scanCondition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get condition: %w", err)
	}
	return c, nil
}

// List returns a user's conditions, newest date first, within the
// inclusive range. Empty bounds are open.
func (s *ConditionStore) List(ctx context.Context, userID, startDate, endDate string) ([]model.Condition, error) {
	query := `SELECT ` + conditionCols + ` FROM conditions WHERE user_id = ?`
	args := []any{userID}
	if startDate != "" {
		query += ` AND date >= ?`
		args = append(args, startDate)
	}
	if endDate != "" {
		query += ` AND date <= ?`
		args = append(args, endDate)
	}
	query += ` ORDER BY date DESC`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	defer rows.Close()

	var out []model.Condition
	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Delete removes one of the user's own conditions. It reports whether a
// row was removed.
func (s *ConditionStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM conditions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete condition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
