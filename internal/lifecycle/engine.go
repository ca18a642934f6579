// Package lifecycle owns the shift status field: it validates every
// transition, checks who may apply it, enforces the clock-in geofence and
// emits one event per committed change.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/geo"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64
	Role domain.Role
}

type Engine struct {
	store    Store
	users    Directory
	notifier Notifier
	logger   *slog.Logger
	radius   float64
	now      func() time.Time
	newID    func() uuid.UUID
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithGeofenceRadius(meters float64) Option {
	return func(e *Engine) { e.radius = meters }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store Store, users Directory, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		users:    users,
		notifier: discardNotifier{},
		logger:   slog.Default(),
		radius:   geo.DefaultGeofenceRadius,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// mutation edits a private copy of the shift and returns the events to record.
type mutation func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error)

// apply runs one read-modify-write cycle. A lost compare-and-swap surfaces as
// ConflictError; the engine never retries on the caller's behalf.
func (e *Engine) apply(ctx context.Context, id uuid.UUID, mutate mutation) (*domain.Shift, error) {
	current, err := e.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	now := e.now()
	events, err := mutate(next, now)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = now

	if err := e.store.UpdateShift(ctx, next, events...); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, &ConflictError{ShiftID: id, Message: "shift was changed by someone else, refresh and try again"}
		}
		return nil, err
	}

	e.notify(ctx, next, events)
	return next, nil
}

// notify runs after commit, so a failing notifier is logged rather than
// turned into an error for a transition that already happened.
func (e *Engine) notify(ctx context.Context, shift *domain.Shift, events []domain.ShiftEvent) {
	for _, event := range events {
		event.Shift = shift.Clone()
		if err := e.notifier.Notify(ctx, event); err != nil {
			e.logger.Error("failed to deliver shift event", "event", event.Type, "shift", shift.ID, "error", err)
		}
	}
}

func (e *Engine) event(shift *domain.Shift, typ domain.EventType, actor Actor, from domain.ShiftStatus, reason string, now time.Time, recipients ...int64) domain.ShiftEvent {
	filtered := make([]int64, 0, len(recipients))
	for _, id := range recipients {
		if id != actor.ID {
			filtered = append(filtered, id)
		}
	}
	return domain.ShiftEvent{
		ID:         e.newID(),
		ShiftID:    shift.ID,
		Type:       typ,
		ActorID:    actor.ID,
		FromStatus: from,
		ToStatus:   shift.Status,
		Reason:     reason,
		Recipients: filtered,
		OccurredAt: now,
	}
}

func requireOwner(op Operation, shift *domain.Shift, actor Actor) error {
	if shift.OwnerID != actor.ID {
		return &AuthorizationError{Op: op, ActorID: actor.ID, Reason: "only the business that posted it can"}
	}
	return nil
}

func requireAssignee(op Operation, shift *domain.Shift, actor Actor) error {
	if !shift.IsAssignee(actor.ID) {
		return &AuthorizationError{Op: op, ActorID: actor.ID, Reason: "only the assigned professional can"}
	}
	return nil
}

func requireBusiness(op Operation, actor Actor) error {
	if actor.Role != domain.RoleBusiness {
		return &AuthorizationError{Op: op, ActorID: actor.ID, Reason: "only businesses can"}
	}
	return nil
}

func assigneeOf(shift *domain.Shift) []int64 {
	if shift.AssigneeID == nil {
		return nil
	}
	return []int64{*shift.AssigneeID}
}
