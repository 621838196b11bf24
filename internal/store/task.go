package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreus/internal/model"
)

type TaskStore struct {
	db *sql.DB
	tx *TxManager
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db, tx: NewTxManager(db)}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var endDate sql.NullString
	var isDone int
	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.Date, &t.Order, &t.Room, &t.Tip,
		&t.AssigneeID, &t.Repeat, &endDate, &t.Category, &t.Memo,
		&t.DurationID, &t.EffortID, &t.Points, &isDone, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		t.EndDate = &endDate.String
	}
	t.IsDone = isDone != 0
	return &t, nil
}

const taskCols = `id, household_id, title, date, sort_order, room, tip, assignee_id, repeat, end_date,
	category, memo, duration_id, effort_id, points, is_done, created_by, created_at, updated_at`

// TaskInput holds the fields of a new task. Points defaults to
// model.DefaultTaskPoints when nil.
type TaskInput struct {
	Title      string
	Date       string
	Room       string
	Tip        string
	AssigneeID string
	Repeat     string
	EndDate    *string
	Category   string
	Memo       string
	DurationID string
	EffortID   string
	Points     *int
	CreatedBy  string
}

// TaskPatch lists task fields to change; nil fields are left alone.
type TaskPatch struct {
	Title      *string
	Date       *string
	Room       *string
	Tip        *string
	AssigneeID *string
	Repeat     *string
	EndDate    *string
	Category   *string
	Memo       *string
	DurationID *string
	EffortID   *string
	Points     *int
	Order      *int
	IsDone     *bool
}

func (s *TaskStore) Create(ctx context.Context, householdID string, in TaskInput) (*model.Task, error) {
	points := model.DefaultTaskPoints
	if in.Points != nil {
		points = *in.Points
	}
	repeat := in.Repeat
	if repeat == "" {
		repeat = model.DefaultRepeat
	}
	id := uuid.NewString()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		count, err := s.countOnDate(ctx, householdID, in.Date, "")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		_, err = conn(ctx, s.db).ExecContext(ctx,
			`INSERT INTO tasks (id, household_id, title, date, sort_order, room, tip, assignee_id, repeat, end_date,
				category, memo, duration_id, effort_id, points, is_done, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
			id, householdID, in.Title, in.Date, count+1, in.Room, in.Tip, in.AssigneeID, repeat, in.EndDate,
			in.Category, in.Memo, in.DurationID, in.EffortID, points, in.CreatedBy, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, householdID, id)
}

func (s *TaskStore) GetByID(ctx context.Context, householdID, id string) (*model.Task, error) {
	row := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE id = ? AND household_id = ?`, id, householdID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns a household's tasks within the inclusive date range.
// Empty bounds are open.
func (s *TaskStore) List(ctx context.Context, householdID, startDate, endDate string) ([]model.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks WHERE household_id = ?`
	args := []any{householdID}
	if startDate != "" {
		query += ` AND date >= ?`
		args = append(args, startDate)
	}
	if endDate != "" {
		query += ` AND date <= ?`
		args = append(args, endDate)
	}
	query += ` ORDER BY date, sort_order, created_at, rowid`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update applies p to a task. Moving a task to another date appends it
// to that date; both dates are then renumbered from 1.
func (s *TaskStore) Update(ctx context.Context, householdID, id string, p TaskPatch) (*model.Task, error) {
	var found bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.GetByID(ctx, householdID, id)
		if err != nil || t == nil {
			return err
		}
		found = true
		prevDate := t.Date

		applyTaskPatch(t, p)
		moved := p.Date != nil && *p.Date != prevDate
		if moved {
			count, err := s.countOnDate(ctx, householdID, t.Date, t.ID)
			if err != nil {
				return err
			}
			t.Order = count + 1
		}

		_, err = conn(ctx, s.db).ExecContext(ctx,
			`UPDATE tasks SET title = ?, date = ?, sort_order = ?, room = ?, tip = ?, assignee_id = ?, repeat = ?,
				end_date = ?, category = ?, memo = ?, duration_id = ?, effort_id = ?, points = ?, is_done = ?, updated_at = ?
			 WHERE id = ? AND household_id = ?`,
			t.Title, t.Date, t.Order, t.Room, t.Tip, t.AssigneeID, t.Repeat,
			t.EndDate, t.Category, t.Memo, t.DurationID, t.EffortID, t.Points, boolToInt(t.IsDone), time.Now().UTC(),
			id, householdID,
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		switch {
		case moved:
			if err := s.reorderDate(ctx, householdID, prevDate); err != nil {
				return err
			}
			return s.reorderDate(ctx, householdID, t.Date)
		case p.Order != nil:
			return s.reorderDate(ctx, householdID, t.Date)
		}
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	return s.GetByID(ctx, householdID, id)
}

func applyTaskPatch(t *model.Task, p TaskPatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.Title, p.Title)
	set(&t.Date, p.Date)
	set(&t.Room, p.Room)
	set(&t.Tip, p.Tip)
	set(&t.AssigneeID, p.AssigneeID)
	set(&t.Repeat, p.Repeat)
	set(&t.Category, p.Category)
	set(&t.Memo, p.Memo)
	set(&t.DurationID, p.DurationID)
	set(&t.EffortID, p.EffortID)
	if p.EndDate != nil {
		end := *p.EndDate
		t.EndDate = &end
		if end == "" {
			t.EndDate = nil
		}
	}
	if p.Points != nil {
		t.Points = *p.Points
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
}

// Toggle flips a task's done flag.
func (s *TaskStore) Toggle(ctx context.Context, householdID, id string) (*model.Task, error) {
	res, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE tasks SET is_done = 1 - is_done, updated_at = ? WHERE id = ? AND household_id = ?`,
		time.Now().UTC(), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, householdID, id)
}

// UpdatePoints sets a task's point value.
func (s *TaskStore) UpdatePoints(ctx context.Context, householdID, id string, points int) error {
	_, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE tasks SET points = ?, updated_at = ? WHERE id = ? AND household_id = ?`,
		points, time.Now().UTC(), id, householdID,
	)
	if err != nil {
		return fmt.Errorf("update task points: %w", err)
	}
	return nil
}

// Delete removes a task and renumbers the rest of its date. It returns
// the deleted task, or nil when there was none.
func (s *TaskStore) Delete(ctx context.Context, householdID, id string) (*model.Task, error) {
	var deleted *model.Task
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		t, err := s.GetByID(ctx, householdID, id)
		if err != nil || t == nil {
			return err
		}
		if _, err := conn(ctx, s.db).ExecContext(ctx,
			`DELETE FROM tasks WHERE id = ? AND household_id = ?`, id, householdID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		deleted = t
		return s.reorderDate(ctx, householdID, t.Date)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *TaskStore) countOnDate(ctx context.Context, householdID, date, excludeID string) (int, error) {
	var n int
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE household_id = ? AND date = ? AND id != ?`,
		householdID, date, excludeID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks on date: %w", err)
	}
	return n, nil
}

// reorderDate renumbers a date's tasks 1..n keeping their relative order.
func (s *TaskStore) reorderDate(ctx context.Context, householdID, date string) error {
	if date == "" {
		return nil
	}
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT id, sort_order FROM tasks WHERE household_id = ? AND date = ? ORDER BY sort_order, created_at, rowid`,
		householdID, date,
	)
	if err != nil {
		return fmt.Errorf("list tasks for reorder: %w", err)
	}
	type entry struct {
		id    string
		order int
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.order); err != nil {
			rows.Close()
			return fmt.Errorf("scan task order: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate task order: %w", err)
	}

	for i, e := range entries {
		if e.order == i+1 {
			continue
		}
		if _, err := conn(ctx, s.db).ExecContext(ctx,
			`UPDATE tasks SET sort_order = ? WHERE id = ?`, i+1, e.id); err != nil {
			return fmt.Errorf("reorder task: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
