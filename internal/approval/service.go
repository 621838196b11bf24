package approval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choreus/internal/model"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Caller is the authenticated member on whose behalf the service acts.
type Caller struct {
	UserID      string
	HouseholdID string
	Name        string
}

type CreateInput struct {
	TaskID    *string
	Title     string
	Date      string
	Delta     int
	Direction model.Direction
}

type DecisionInput struct {
	MemberID string
	Decision string
}

type RequestRepository interface {
	Create(ctx context.Context, r *model.Request) error
	GetByID(ctx context.Context, householdID, id string) (*model.Request, error)
	ListByHousehold(ctx context.Context, householdID string) ([]model.Request, error)
	UpdateDecision(ctx context.Context, requestID string, a model.Approval, status model.RequestStatus) error
	Delete(ctx context.Context, id string) error
}

type TaskRepository interface {
	GetByID(ctx context.Context, householdID, id string) (*model.Task, error)
	UpdatePoints(ctx context.Context, householdID, id string, points int) error
}

// Roster lists the members of a household in a stable order.
type Roster interface {
	ListMembers(ctx context.Context, householdID string) ([]model.Member, error)
}

// Archive keeps the outcome of resolved requests.
type Archive interface {
	Record(ctx context.Context, o *model.RequestOutcome) error
	ListByHousehold(ctx context.Context, householdID string, limit int) ([]model.RequestOutcome, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventType string

const (
	EventRequestCreated  EventType = "request_created"
	EventRequestDecided  EventType = "request_decided"
	EventRequestApproved EventType = "request_approved"
	EventRequestRejected EventType = "request_rejected"
)

// Event is emitted after a create or decide has committed.
type Event struct {
	Type        EventType
	HouseholdID string
	ActorID     string
	Result      *Result
	Pending     []string
}

type Notifier interface {
	Notify(ctx context.Context, e Event)
}

type Config struct {
	// AllowRevote lets a member overwrite a decision they already cast.
	AllowRevote bool
	Now         func() time.Time
}

type Service struct {
	cfg      Config
	tx       TxRunner
	requests RequestRepository
	tasks    TaskRepository
	roster   Roster
	archive  Archive
	notifier Notifier
	logger   *slog.Logger
}

func NewService(cfg Config, tx TxRunner, requests RequestRepository, tasks TaskRepository, roster Roster, archive Archive, notifier Notifier, logger *slog.Logger) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		tx:       tx,
		requests: requests,
		tasks:    tasks,
		roster:   roster,
		archive:  archive,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns the caller's household's open requests, newest first.
func (s *Service) List(ctx context.Context, caller Caller) ([]Snapshot, error) {
	reqs, err := s.requests.ListByHousehold(ctx, caller.HouseholdID)
	if err != nil {
		return nil, storageFailure("list requests", err)
	}
	out := make([]Snapshot, 0, len(reqs))
	for i := range reqs {
		out = append(out, NewSnapshot(&reqs[i]))
	}
	return out, nil
}

// History returns archived outcomes for the caller's household.
func (s *Service) History(ctx context.Context, caller Caller, limit int) ([]model.RequestOutcome, error) {
	outcomes, err := s.archive.ListByHousehold(ctx, caller.HouseholdID, limit)
	if err != nil {
		return nil, storageFailure("list request history", err)
	}
	if outcomes == nil {
		outcomes = []model.RequestOutcome{}
	}
	return outcomes, nil
}

// Create opens a request against the caller's household. A household
// with nobody else to ask resolves the request on the spot.
func (s *Service) Create(ctx context.Context, caller Caller, in CreateInput) (*Result, error) {
	const op = "create request"

	var taskID *string
	if in.TaskID != nil && strings.TrimSpace(*in.TaskID) != "" {
		id := strings.TrimSpace(*in.TaskID)
		taskID = &id
	}
	title := strings.TrimSpace(in.Title)
	if taskID == nil && title == "" {
		return nil, invalidInput(op, "task_id or title is required")
	}
	direction := in.Direction
	switch direction {
	case "":
		direction = model.DirectionIncrease
	case model.DirectionIncrease, model.DirectionDecrease:
	default:
		return nil, invalidInput(op, "direction must be increase or decrease")
	}
	magnitude := in.Delta
	if magnitude < 0 {
		magnitude = -magnitude
	}

	now := s.cfg.Now().UTC()
	req := &model.Request{
		ID:          uuid.NewString(),
		HouseholdID: caller.HouseholdID,
		RequesterID: caller.UserID,
		TaskID:      taskID,
		TaskTitle:   title,
		TaskDate:    strings.TrimSpace(in.Date),
		Delta:       magnitude,
		Direction:   direction,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var (
		updated   *model.TaskSummary
		pointsErr error
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if taskID != nil {
			task, err := s.tasks.GetByID(ctx, caller.HouseholdID, *taskID)
			if err != nil {
				return storageFailure("get task", err)
			}
			if task == nil {
				return notFound(op, "task not found")
			}
			req.TaskTitle = task.Title
			req.TaskDate = task.Date
		}

		members, err := s.roster.ListMembers(ctx, caller.HouseholdID)
		if err != nil {
			return storageFailure("list members", err)
		}
		req.RequesterName = caller.Name
		found := false
		for _, m := range members {
			if m.ID == caller.UserID {
				req.RequesterName = m.Name
				found = true
				break
			}
		}
		if !found {
			return notFound(op, "requester not found")
		}

		req.Approvals = BuildLedger(members, caller.UserID)
		req.Status = Aggregate(req.Approvals)

		if req.Status == model.RequestPending {
			if err := s.requests.Create(ctx, req); err != nil {
				return storageFailure("create request", err)
			}
			return nil
		}

		updated, pointsErr = s.resolvePoints(ctx, req)
		return s.record(ctx, req, updated != nil, now)
	})
	if err != nil {
		return nil, storageFailure(op, err)
	}

	result := &Result{Snapshot: NewSnapshot(req), UpdatedTask: updated}
	s.logger.Info("request created", "request_id", req.ID, "household_id", req.HouseholdID, "status", req.Status)
	s.notify(ctx, req, caller.UserID, result, true)

	if pointsErr != nil {
		return result, &Error{Kind: KindStorage, Op: "apply points", Message: "request approved but points were not applied", Err: pointsErr, Result: result}
	}
	return result, nil
}

// Decide records one member's decision on a request. When the request
// reaches a final status it is removed and its last snapshot returned.
func (s *Service) Decide(ctx context.Context, caller Caller, requestID string, in DecisionInput) (*Result, error) {
	const op = "decide request"

	memberID := strings.TrimSpace(in.MemberID)
	if memberID == "" {
		return nil, invalidInput(op, "member_id is required")
	}
	var state model.ApprovalState
	switch in.Decision {
	case DecisionApprove:
		state = model.ApprovalApproved
	case DecisionReject:
		state = model.ApprovalRejected
	default:
		return nil, invalidInput(op, "decision must be approve or reject")
	}

	var (
		req       *model.Request
		updated   *model.TaskSummary
		pointsErr error
	)
	now := s.cfg.Now().UTC()
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.GetByID(ctx, caller.HouseholdID, requestID)
		if err != nil {
			return storageFailure("get request", err)
		}
		if req == nil {
			return notFound(op, "request not found")
		}
		if memberID == req.RequesterID {
			return invalidOperation(op, "requester cannot decide on their own request")
		}
		idx := req.ApprovalIndex(memberID)
		if idx < 0 {
			return invalidOperation(op, "member is not part of this request")
		}
		record := &req.Approvals[idx]
		if record.State == model.ApprovalRequester {
			return invalidOperation(op, "requester cannot decide on their own request")
		}
		if record.State != model.ApprovalPending && !s.cfg.AllowRevote {
			return invalidOperation(op, "member has already decided")
		}

		prior := req.Status
		record.State = state
		record.ActedAt = &now
		req.Status = Aggregate(req.Approvals)
		req.UpdatedAt = now

		if err := s.requests.UpdateDecision(ctx, req.ID, *record, req.Status); err != nil {
			return storageFailure("update decision", err)
		}

		if !req.Status.Terminal() {
			return nil
		}

		if req.Status == model.RequestApproved && prior == model.RequestPending {
			updated, pointsErr = s.resolvePoints(ctx, req)
		}
		if err := s.requests.Delete(ctx, req.ID); err != nil {
			return storageFailure("delete request", err)
		}
		return s.record(ctx, req, updated != nil, now)
	})
	if err != nil {
		return nil, storageFailure(op, err)
	}

	result := &Result{Snapshot: NewSnapshot(req), UpdatedTask: updated}
	s.logger.Info("request decided",
		"request_id", req.ID,
		"member_id", memberID,
		"decision", in.Decision,
		"status", req.Status,
	)
	s.notify(ctx, req, memberID, result, false)

	if pointsErr != nil {
		return result, &Error{Kind: KindStorage, Op: "apply points", Message: "request approved but points were not applied", Err: pointsErr, Result: result}
	}
	return result, nil
}

// resolvePoints applies an approved request's delta to its task in a
// nested transaction. A failure rolls back only the point change; the
// decision itself stands.
func (s *Service) resolvePoints(ctx context.Context, req *model.Request) (*model.TaskSummary, error) {
	if req.TaskID == nil {
		return nil, nil
	}
	delta := SignedDelta(req.Delta, req.Direction)

	var summary *model.TaskSummary
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		task, err := s.tasks.GetByID(ctx, req.HouseholdID, *req.TaskID)
		if err != nil {
			return err
		}
		if task == nil {
			s.logger.Warn("approved request references missing task", "request_id", req.ID, "task_id", *req.TaskID)
			return nil
		}
		task.Points = ApplyDelta(task.Points, delta)
		if err := s.tasks.UpdatePoints(ctx, req.HouseholdID, task.ID, task.Points); err != nil {
			return err
		}
		sum := task.Summary()
		summary = &sum
		return nil
	})
	if err != nil {
		s.logger.Error("request approved but points not applied",
			"request_id", req.ID,
			"task_id", *req.TaskID,
			"delta", delta,
			"error", err,
		)
		return nil, err
	}
	return summary, nil
}

func (s *Service) record(ctx context.Context, req *model.Request, applied bool, at time.Time) error {
	approvals := make([]model.Approval, len(req.Approvals))
	copy(approvals, req.Approvals)
	o := &model.RequestOutcome{
		ID:            uuid.NewString(),
		RequestID:     req.ID,
		HouseholdID:   req.HouseholdID,
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		TaskID:        req.TaskID,
		TaskTitle:     req.TaskTitle,
		TaskDate:      req.TaskDate,
		Delta:         SignedDelta(req.Delta, req.Direction),
		Status:        req.Status,
		PointsApplied: applied,
		Approvals:     approvals,
		ResolvedAt:    at,
	}
	if err := s.archive.Record(ctx, o); err != nil {
		return storageFailure("archive request", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, req *model.Request, actorID string, result *Result, created bool) {
	if s.notifier == nil {
		return
	}
	var t EventType
	switch {
	case req.Status == model.RequestApproved:
		t = EventRequestApproved
	case req.Status == model.RequestRejected:
		t = EventRequestRejected
	case created:
		t = EventRequestCreated
	default:
		t = EventRequestDecided
	}
	s.notifier.Notify(ctx, Event{
		Type:        t,
		HouseholdID: req.HouseholdID,
		ActorID:     actorID,
		Result:      result,
		Pending:     PendingMembers(req),
	})
}
