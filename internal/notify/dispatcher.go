package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/choreus/internal/approval"
	"github.com/dukerupert/choreus/internal/model"
	"github.com/dukerupert/choreus/internal/push"
	"github.com/dukerupert/choreus/internal/websocket"
)

type UserNotifier interface {
	NotifyUsers(ctx context.Context, userIDs []string, payload push.Payload) int
}

// Dispatcher turns committed request events into websocket broadcasts
// and, when a push notifier is configured, device notifications.
type Dispatcher struct {
	hub    websocket.Broadcaster
	push   UserNotifier
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. pusher may be nil.
func NewDispatcher(hub websocket.Broadcaster, pusher UserNotifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, push: pusher, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, e approval.Event) {
	if e.Result == nil {
		return
	}
	r := e.Result

	if d.hub != nil {
		action := strings.TrimPrefix(string(e.Type), "request_")
		d.hub.Broadcast(e.HouseholdID, websocket.NewMessage("request", action, r.ID, r))
		if r.UpdatedTask != nil {
			d.hub.Broadcast(e.HouseholdID, websocket.NewMessage("task", "points_updated", r.UpdatedTask.ID, r.UpdatedTask))
		}
	}

	if d.push == nil {
		return
	}
	userIDs, payload := pushFor(e)
	if len(userIDs) == 0 {
		return
	}

	// Delivery runs after the response; the request context may be gone by then.
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sent := d.push.NotifyUsers(ctx, userIDs, payload)
		d.logger.Debug("request push sent", "request_id", r.ID, "event", e.Type, "sent", sent)
	}()
}

// Wait blocks until in-flight push deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func pushFor(e approval.Event) ([]string, push.Payload) {
	r := e.Result
	payload := push.Payload{URL: "/requests", Tag: "request-" + r.ID}

	switch e.Type {
	case approval.EventRequestCreated:
		payload.Title = "New point request"
		payload.Body = fmt.Sprintf("%s asks to %s %q by %d", r.Requester, verb(r.Direction), r.TaskTitle, abs(r.Delta))
		return e.Pending, payload
	case approval.EventRequestApproved, approval.EventRequestRejected:
		if e.ActorID == r.RequesterID {
			return nil, payload
		}
		payload.Title = "Request " + string(r.Status)
		payload.Body = fmt.Sprintf("Your request for %q was %s", r.TaskTitle, r.Status)
		return []string{r.RequesterID}, payload
	}
	return nil, payload
}

func verb(d model.Direction) string {
	if d == model.DirectionDecrease {
		return "lower"
	}
	return "raise"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
