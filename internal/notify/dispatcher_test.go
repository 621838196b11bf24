package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dukerupert/choreus/internal/approval"
	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/push"
	"github.com/dukerupert/choreus/internal/websocket"
)

type sentMessage struct {
	household string
	msg       websocket.Message
}

type fakeHub struct {
	sent []sentMessage
}

func (h *fakeHub) Broadcast(householdID string, msg websocket.Message) {
	h.sent = append(h.sent, sentMessage{householdID, msg})
}

type pushCall struct {
	users   []string
	payload push.Payload
}

type fakePusher struct {
	mu    sync.Mutex
	calls []pushCall
}

func (p *fakePusher) NotifyUsers(_ context.Context, userIDs []string, payload push.Payload) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{userIDs, payload})
	return len(userIDs)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testResult(status model.RequestStatus) *approval.Result {
	return &approval.Result{Snapshot: approval.Snapshot{
		ID:          "r1",
		Requester:   "Alice",
		RequesterID: "a",
		TaskTitle:   "Dishes",
		Delta:       5,
		Direction:   model.DirectionIncrease,
		Status:      status,
	}}
}

func TestNotifyCreated(t *testing.T) {
	hub := &fakeHub{}
	pusher := &fakePusher{}
	d := NewDispatcher(hub, pusher, testLogger())

	d.Notify(context.Background(), approval.Event{
		Type:        approval.EventRequestCreated,
		HouseholdID: "h1",
		ActorID:     "a",
		Result:      testResult(model.RequestPending),
		Pending:     []string{"b", "c"},
	})
	d.Wait()

	if len(hub.sent) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(hub.sent))
	}
	if hub.sent[0].household != "h1" || hub.sent[0].msg.Type != "request_created" {
		t.Errorf("broadcast = %+v", hub.sent[0])
	}
	if len(pusher.calls) != 1 {
		t.Fatalf("push calls = %d, want 1", len(pusher.calls))
	}
	call := pusher.calls[0]
	if len(call.users) != 2 || call.users[0] != "b" {
		t.Errorf("push users = %v, want [b c]", call.users)
	}
	if call.payload.Tag != "request-r1" {
		t.Errorf("tag = %q, want %q", call.payload.Tag, "request-r1")
	}
	if call.payload.Body != `Alice asks to raise "Dishes" by 5` {
		t.Errorf("body = %q", call.payload.Body)
	}
}

func TestNotifyApprovedWithTask(t *testing.T) {
	hub := &fakeHub{}
	pusher := &fakePusher{}
	d := NewDispatcher(hub, pusher, testLogger())

	result := testResult(model.RequestApproved)
	result.UpdatedTask = &model.TaskSummary{ID: "t1", Date: "2026-03-01", Points: 15}
	d.Notify(context.Background(), approval.Event{
		Type:        approval.EventRequestApproved,
		HouseholdID: "h1",
		ActorID:     "c",
		Result:      result,
	})
	d.Wait()

	if len(hub.sent) != 2 {
		t.Fatalf("broadcasts = %d, want 2", len(hub.sent))
	}
	if hub.sent[0].msg.Type != "request_approved" {
		t.Errorf("first type = %q", hub.sent[0].msg.Type)
	}
	if hub.sent[1].msg.Type != "task_points_updated" || hub.sent[1].msg.ID != "t1" {
		t.Errorf("second = %+v", hub.sent[1].msg)
	}
	if len(pusher.calls) != 1 || pusher.calls[0].users[0] != "a" {
		t.Fatalf("push calls = %+v, want requester a", pusher.calls)
	}
	if pusher.calls[0].payload.Title != "Request approved" {
		t.Errorf("title = %q", pusher.calls[0].payload.Title)
	}
}

func TestNotifySkipsPushForOwnResolution(t *testing.T) {
	pusher := &fakePusher{}
	d := NewDispatcher(&fakeHub{}, pusher, testLogger())

	// A single-member household resolves on creation by the requester.
	d.Notify(context.Background(), approval.Event{
		Type:        approval.EventRequestApproved,
		HouseholdID: "h1",
		ActorID:     "a",
		Result:      testResult(model.RequestApproved),
	})
	d.Wait()

	if len(pusher.calls) != 0 {
		t.Errorf("push calls = %d, want 0", len(pusher.calls))
	}
}

func TestNotifyDecidedBroadcastOnly(t *testing.T) {
	hub := &fakeHub{}
	pusher := &fakePusher{}
	d := NewDispatcher(hub, pusher, testLogger())

	d.Notify(context.Background(), approval.Event{
		Type:        approval.EventRequestDecided,
		HouseholdID: "h1",
		ActorID:     "b",
		Result:      testResult(model.RequestPending),
		Pending:     []string{"c"},
	})
	d.Wait()

	if len(hub.sent) != 1 || hub.sent[0].msg.Action != "decided" {
		t.Errorf("broadcasts = %+v", hub.sent)
	}
	if len(pusher.calls) != 0 {
		t.Errorf("push calls = %d, want 0", len(pusher.calls))
	}
}

func TestNotifyWithoutPush(t *testing.T) {
	hub := &fakeHub{}
	d := NewDispatcher(hub, nil, testLogger())

	d.Notify(context.Background(), approval.Event{
		Type:        approval.EventRequestCreated,
		HouseholdID: "h1",
		Result:      testResult(model.RequestPending),
		Pending:     []string{"b"},
	})
	d.Wait()

	if len(hub.sent) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(hub.sent))
	}
}
