package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/choreus/internal/model"
)

type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

func scanRequest(scanner interface{ Scan(...any) error }) (*model.Request, error) {
	var r model.Request
	var taskID sql.NullString
	err := scanner.Scan(
		&r.ID, &r.HouseholdID, &r.RequesterID, &r.RequesterName, &taskID,
		&r.TaskTitle, &r.TaskDate, &r.Delta, &r.Direction, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		r.TaskID = &taskID.String
	}
	return &r, nil
}

const requestCols = `id, household_id, requester_id, requester_name, task_id, task_title, task_date,
	delta, direction, status, created_at, updated_at`

// Create stores a request together with its approval records.
func (s *RequestStore) Create(ctx context.Context, r *model.Request) error {
	q := conn(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO requests (`+requestCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.HouseholdID, r.RequesterID, r.RequesterName, r.TaskID, r.TaskTitle, r.TaskDate,
		r.Delta, r.Direction, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	for i, a := range r.Approvals {
		_, err := q.ExecContext(ctx,
			`INSERT INTO request_approvals (request_id, position, member_id, member_name, state, acted_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, i, a.MemberID, a.MemberName, a.State, a.ActedAt,
		)
		if err != nil {
			return fmt.Errorf("insert request approval: %w", err)
		}
	}
	return nil
}

func (s *RequestStore) GetByID(ctx context.Context, householdID, id string) (*model.Request, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestCols+` FROM requests WHERE id = ? AND household_id = ?`, id, householdID)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	approvals, err := s.approvals(ctx, []string{r.ID})
	if err != nil {
		return nil, err
	}
	r.Approvals = approvals[r.ID]
	return r, nil
}

// ListByHousehold returns a household's open requests, newest first.
func (s *RequestStore) ListByHousehold(ctx context.Context, householdID string) ([]model.Request, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+requestCols+` FROM requests WHERE household_id = ? ORDER BY created_at DESC, rowid DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	var reqs []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan request: %w", err)
		}
		reqs = append(reqs, *r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	if len(reqs) == 0 {
		return reqs, nil
	}

	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	approvals, err := s.approvals(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i].Approvals = approvals[reqs[i].ID]
	}
	return reqs, nil
}

// approvals loads the approval records of the given requests, keyed by
// request id, in ledger order.
func (s *RequestStore) approvals(ctx context.Context, requestIDs []string) (map[string][]model.Approval, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(requestIDs)), ",")
	args := make([]any, len(requestIDs))
	for i, id := range requestIDs {
		args[i] = id
	}
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT request_id, member_id, member_name, state, acted_at FROM request_approvals
		 WHERE request_id IN (`+placeholders+`) ORDER BY request_id, position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list request approvals: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Approval, len(requestIDs))
	for rows.Next() {
		var requestID string
		var a model.Approval
		var actedAt sql.NullTime
		if err := rows.Scan(&requestID, &a.MemberID, &a.MemberName, &a.State, &actedAt); err != nil {
			return nil, fmt.Errorf("scan request approval: %w", err)
		}
		if actedAt.Valid {
			t := actedAt.Time
			a.ActedAt = &t
		}
		out[requestID] = append(out[requestID], a)
	}
	return out, rows.Err()
}

// UpdateDecision stores one member's approval record and the request's
// refreshed status.
func (s *RequestStore) UpdateDecision(ctx context.Context, requestID string, a model.Approval, status model.RequestStatus) error {
	q := conn(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE request_approvals SET state = ?, acted_at = ? WHERE request_id = ? AND member_id = ?`,
		a.State, a.ActedAt, requestID, a.MemberID,
	)
	if err != nil {
		return fmt.Errorf("update request approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update request approval: no record for member %s", a.MemberID)
	}
	_, err = q.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), requestID,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

func (s *RequestStore) Delete(ctx context.Context, id string) error {
	_, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

// ListStale returns pending requests created before cutoff that have not
// been reminded about since cutoff, across all households.
func (s *RequestStore) ListStale(ctx context.Context, cutoff time.Time) ([]model.Request, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+requestCols+` FROM requests
		 WHERE status = ? AND created_at < ? AND (reminded_at IS NULL OR reminded_at < ?)
		 ORDER BY created_at, rowid`,
		model.RequestPending, cutoff.UTC(), cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list stale requests: %w", err)
	}
	var reqs []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan request: %w", err)
		}
		reqs = append(reqs, *r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale requests: %w", err)
	}

	for i := range reqs {
		approvals, err := s.approvals(ctx, []string{reqs[i].ID})
		if err != nil {
			return nil, err
		}
		reqs[i].Approvals = approvals[reqs[i].ID]
	}
	return reqs, nil
}

func (s *RequestStore) MarkReminded(ctx context.Context, id string, at time.Time) error {
	_, err := conn(ctx, s.db).ExecContext(ctx, `UPDATE requests SET reminded_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark request reminded: %w", err)
	}
	return nil
}
