package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/choreus/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// OutcomeStore archives resolved requests.
type OutcomeStore struct {
	db *sql.DB
}

func NewOutcomeStore(db *sql.DB) *OutcomeStore {
	return &OutcomeStore{db: db}
}

func scanOutcome(scanner interface{ Scan(...any) error }) (*model.RequestOutcome, error) {
	var o model.RequestOutcome
	var taskID sql.NullString
	var applied int
	var approvals string
	err := scanner.Scan(
		&o.ID, &o.RequestID, &o.HouseholdID, &o.RequesterID, &o.RequesterName, &taskID,
		&o.TaskTitle, &o.TaskDate, &o.Delta, &o.Status, &applied, &approvals, &o.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		o.TaskID = &taskID.String
	}
	o.PointsApplied = applied != 0
	if err := json.Unmarshal([]byte(approvals), &o.Approvals); err != nil {
		return nil, fmt.Errorf("decode outcome approvals: %w", err)
	}
	return &o, nil
}

const outcomeCols = `id, request_id, household_id, requester_id, requester_name, task_id,
	task_title, task_date, delta, status, points_applied, approvals, resolved_at`

func (s *OutcomeStore) Record(ctx context.Context, o *model.RequestOutcome) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	approvals, err := json.Marshal(o.Approvals)
	if err != nil {
		return fmt.Errorf("encode outcome approvals: %w", err)
	}
	_, err = conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO request_outcomes (`+outcomeCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.RequestID, o.HouseholdID, o.RequesterID, o.RequesterName, o.TaskID,
		o.TaskTitle, o.TaskDate, o.Delta, o.Status, boolToInt(o.PointsApplied), string(approvals), o.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request outcome: %w", err)
	}
	return nil
}

// ListByHousehold returns the most recent outcomes first. limit is
// clamped to 1..MaxHistoryLimit, with DefaultHistoryLimit for zero.
func (s *OutcomeStore) ListByHousehold(ctx context.Context, householdID string, limit int) ([]model.RequestOutcome, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+outcomeCols+` FROM request_outcomes WHERE household_id = ?
		 ORDER BY resolved_at DESC, rowid DESC LIMIT ?`,
		householdID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list request outcomes: %w", err)
	}
	defer rows.Close()

	var out []model.RequestOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request outcome: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}
