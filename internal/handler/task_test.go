package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/store"
)

type taskFixture struct {
	h     *TaskHandler
	hub   *recordingHub
	alice *model.User
	bob   *model.User
	mux   *http.ServeMux
}

func newTaskFixture(t *testing.T) taskFixture {
	t.Helper()
	db := setupTestDB(t)
	us := store.NewUserStore(db)
	hub := &recordingHub{}
	h := NewTaskHandler(store.NewTaskStore(db), us, hub, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("POST /api/tasks", h.Create)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.Update)
	mux.HandleFunc("PATCH /api/tasks/{id}/toggle", h.Toggle)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.Delete)

	return taskFixture{
		h:     h,
		hub:   hub,
		alice: createUser(t, us, "alice@example.com", "Alice", "home-1"),
		bob:   createUser(t, us, "bob@example.com", "Bob", "home-1"),
		mux:   mux,
	}
}

func (f taskFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, newRequest(t, method, target, body, f.alice))
	return rec
}

func (f taskFixture) create(t *testing.T, title, date string) model.Task {
	t.Helper()
	rec := f.do(t, "POST", "/api/tasks", map[string]any{
		"title": title, "date": date, "assignee_id": f.bob.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var task model.Task
	decode(t, rec, &task)
	return task
}

func TestTaskCreate(t *testing.T) {
	f := newTaskFixture(t)

	task := f.create(t, "  Dishes ", "2026-03-01")
	if task.Title != "Dishes" || task.Points != 10 || task.Repeat != "none" || task.Order != 1 {
		t.Errorf("task = %+v", task)
	}
	if task.CreatedBy != f.alice.ID || task.HouseholdID != "home-1" {
		t.Errorf("owner = %q/%q", task.CreatedBy, task.HouseholdID)
	}
	second := f.create(t, "Laundry", "2026-03-01")
	if second.Order != 2 {
		t.Errorf("second order = %d, want 2", second.Order)
	}
	if len(f.hub.msgs) != 2 || f.hub.msgs[0].Type != "task_created" {
		t.Errorf("broadcasts = %+v", f.hub.msgs)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	f := newTaskFixture(t)
	outsider := createUser(t, f.h.userStore, "eve@example.com", "Eve", "home-2")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"date": "2026-03-01", "assignee_id": f.bob.ID}},
		{"missing assignee", map[string]any{"title": "x", "date": "2026-03-01"}},
		{"bad date", map[string]any{"title": "x", "date": "03/01/2026", "assignee_id": f.bob.ID}},
		{"negative points", map[string]any{"title": "x", "date": "2026-03-01", "assignee_id": f.bob.ID, "points": -1}},
		{"foreign assignee", map[string]any{"title": "x", "date": "2026-03-01", "assignee_id": outsider.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "POST", "/api/tasks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTaskListRange(t *testing.T) {
	f := newTaskFixture(t)
	f.create(t, "a", "2026-03-01")
	f.create(t, "b", "2026-03-02")
	f.create(t, "c", "2026-03-03")

	rec := f.do(t, "GET", "/api/tasks?start_date=2026-03-02&end_date=2026-03-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Tasks []model.Task `json:"tasks"`
	}
	decode(t, rec, &resp)
	if len(resp.Tasks) != 2 || resp.Tasks[0].Title != "b" {
		t.Errorf("tasks = %+v", resp.Tasks)
	}

	rec = f.do(t, "GET", "/api/tasks?start_date=tomorrow", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad range status = %d, want 400", rec.Code)
	}
}

func TestTaskUpdateMovesDate(t *testing.T) {
	f := newTaskFixture(t)
	first := f.create(t, "a", "2026-03-01")
	second := f.create(t, "b", "2026-03-01")
	f.create(t, "c", "2026-03-02")

	rec := f.do(t, "PATCH", "/api/tasks/"+first.ID, map[string]any{"date": "2026-03-02", "points": 20})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var moved model.Task
	decode(t, rec, &moved)
	if moved.Date != "2026-03-02" || moved.Order != 2 || moved.Points != 20 {
		t.Errorf("moved = %+v", moved)
	}

	got, err := f.h.taskStore.GetByID(t.Context(), "home-1", second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Order != 1 {
		t.Errorf("remaining order = %d, want 1", got.Order)
	}
}

func TestTaskUpdateErrors(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "a", "2026-03-01")

	if rec := f.do(t, "PATCH", "/api/tasks/missing", map[string]any{"memo": "x"}); rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", rec.Code)
	}
	if rec := f.do(t, "PATCH", "/api/tasks/"+task.ID, map[string]any{"title": " "}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty title status = %d, want 400", rec.Code)
	}
	if rec := f.do(t, "PATCH", "/api/tasks/"+task.ID, map[string]any{"order": 0}); rec.Code != http.StatusBadRequest {
		t.Errorf("zero order status = %d, want 400", rec.Code)
	}
}

func TestTaskToggleAndDelete(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, "a", "2026-03-01")

	rec := f.do(t, "PATCH", "/api/tasks/"+task.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	var toggled model.Task
	decode(t, rec, &toggled)
	if !toggled.IsDone {
		t.Error("expected task to be done")
	}

	rec = f.do(t, "DELETE", "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = f.do(t, "DELETE", "/api/tasks/"+task.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	types := make([]string, 0, len(f.hub.msgs))
	for _, m := range f.hub.msgs {
		types = append(types, m.Type)
	}
	want := []string{"task_created", "task_toggled", "task_deleted"}
	if len(types) != len(want) {
		t.Fatalf("broadcasts = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("broadcast[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}
