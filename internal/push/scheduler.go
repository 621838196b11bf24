package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreus/internal/approval"
	"github.com/dukerupert/choreus/internal/model"
)

// StaleRequests finds requests that have waited too long for a decision.
type StaleRequests interface {
	ListStale(ctx context.Context, cutoff time.Time) ([]model.Request, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

// Scheduler periodically reminds members of requests still awaiting
// their decision.
type Scheduler struct {
	mu       sync.RWMutex
	notifier *Notifier
	requests StaleRequests
	interval time.Duration
	after    time.Duration
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler that checks every interval
// for requests pending longer than after.
func NewScheduler(notifier *Notifier, requests StaleRequests, interval, after time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		notifier: notifier,
		requests: requests,
		interval: interval,
		after:    after,
		now:      time.Now,
		logger:   logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().UTC()
	stale, err := s.requests.ListStale(ctx, now.Add(-s.after))
	if err != nil {
		s.logger.Error("list stale requests", "error", err)
		return
	}

	for i := range stale {
		r := &stale[i]
		if pending := approval.PendingMembers(r); len(pending) > 0 {
			s.notifier.NotifyUsers(ctx, pending, Payload{
				Title: "Still waiting on you",
				Body:  fmt.Sprintf("%s is waiting for your decision on %q", r.RequesterName, r.TaskTitle),
				URL:   "/requests",
				Tag:   "request-" + r.ID,
			})
		}
		if err := s.requests.MarkReminded(ctx, r.ID, now); err != nil {
			s.logger.Error("mark request reminded", "request_id", r.ID, "error", err)
		}
	}
	if len(stale) > 0 {
		s.logger.Info("sent request reminders", "count", len(stale))
	}
}
