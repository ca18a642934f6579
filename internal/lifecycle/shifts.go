package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/geo"
)

type CreateInput struct {
	Title                          string
	Description                    string
	StartTime                      time.Time
	EndTime                        time.Time
	HourlyRate                     float64
	Venue                          domain.Location
	RequiresCompletionConfirmation bool
	Status                         domain.ShiftStatus // draft when empty
}

func validateWindow(start, end time.Time) error {
	if start.IsZero() {
		return invalid("startTime", "is required")
	}
	if !end.After(start) {
		return invalid("endTime", "must be after the start time")
	}
	return nil
}

func validateRate(rate float64) error {
	if !(rate > 0) {
		return invalid("hourlyRate", "must be greater than zero")
	}
	return nil
}

func (e *Engine) Create(ctx context.Context, actor Actor, in CreateInput) (*domain.Shift, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "is required")
	}
	if err := validateWindow(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	if err := validateRate(in.HourlyRate); err != nil {
		return nil, err
	}
	if err := geo.Validate(in.Venue); err != nil {
		return nil, invalid("venueLocation", "%s", err.Error())
	}
	status := in.Status
	if status == "" {
		status = domain.ShiftStatusDraft
	}
	if status != domain.ShiftStatusDraft && status != domain.ShiftStatusOpen {
		return nil, invalid("status", "a new shift must be draft or open")
	}
	if err := requireBusiness(OpCreate, actor); err != nil {
		return nil, err
	}

	now := e.now()
	shift := &domain.Shift{
		ID:                             e.newID(),
		OwnerID:                        actor.ID,
		Status:                         status,
		Title:                          strings.TrimSpace(in.Title),
		Description:                    in.Description,
		StartTime:                      in.StartTime,
		EndTime:                        in.EndTime,
		HourlyRate:                     in.HourlyRate,
		Venue:                          in.Venue,
		RequiresCompletionConfirmation: in.RequiresCompletionConfirmation,
		Invitations:                    []domain.Invitation{},
		CreatedAt:                      now,
		UpdatedAt:                      now,
	}
	events := []domain.ShiftEvent{e.event(shift, domain.EventShiftCreated, actor, "", "", now)}
	if err := e.store.CreateShifts(ctx, []*domain.Shift{shift}, events); err != nil {
		return nil, err
	}
	e.notify(ctx, shift, events)
	return shift, nil
}

// Get returns a shift the caller may see: its owner, anyone invited to or
// assigned to it, and any professional while it is open.
func (e *Engine) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Shift, error) {
	shift, err := e.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(shift, actor) {
		return nil, &AuthorizationError{Op: OpView, ActorID: actor.ID, Reason: "shift is not visible to you"}
	}
	return shift, nil
}

func canView(shift *domain.Shift, actor Actor) bool {
	if shift.OwnerID == actor.ID || shift.IsAssignee(actor.ID) {
		return true
	}
	if actor.Role != domain.RoleProfessional {
		return false
	}
	if _, ok := shift.Invitation(actor.ID); ok {
		return true
	}
	return shift.Status == domain.ShiftStatusOpen
}

// List scopes the filter to the caller before querying.
func (e *Engine) List(ctx context.Context, actor Actor, filter domain.ShiftFilter) ([]*domain.Shift, error) {
	switch actor.Role {
	case domain.RoleBusiness:
		filter.OwnerID = &actor.ID
		filter.ParticipantID = nil
	case domain.RoleProfessional:
		filter.OwnerID = nil
		filter.ParticipantID = &actor.ID
		filter.IncludeOpen = true
	default:
		return nil, &AuthorizationError{Op: OpView, ActorID: actor.ID, Reason: "unknown role"}
	}
	return e.store.ListShifts(ctx, filter)
}

// Events returns the audit trail of a shift to its owner and assignee.
func (e *Engine) Events(ctx context.Context, actor Actor, id uuid.UUID) ([]domain.ShiftEvent, error) {
	shift, err := e.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.OwnerID != actor.ID && !shift.IsAssignee(actor.ID) {
		return nil, &AuthorizationError{Op: OpView, ActorID: actor.ID, Reason: "only the owner and assignee can see the history"}
	}
	return e.store.ListShiftEvents(ctx, id)
}

// Delete removes a shift that never left draft.
func (e *Engine) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	shift, err := e.store.GetShift(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(OpDelete, shift, actor); err != nil {
		return err
	}
	if err := requireStatus(OpDelete, shift.Status); err != nil {
		return err
	}
	if err := e.store.DeleteShift(ctx, shift); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return &ConflictError{ShiftID: id, Message: "shift was changed by someone else, refresh and try again"}
		}
		return err
	}
	return nil
}

func (e *Engine) Publish(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Shift, error) {
	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		if err := requireOwner(OpPublish, shift, actor); err != nil {
			return nil, err
		}
		if err := requireStatus(OpPublish, shift.Status); err != nil {
			return nil, err
		}
		from := shift.Status
		shift.Status = domain.ShiftStatusOpen
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftPublished, actor, from, "", now)}, nil
	})
}

// CopyToWeek duplicates the caller's shifts starting inside source into new
// drafts shifted so that source.Start lands on targetStart. Cancelled shifts
// are not copied.
func (e *Engine) CopyToWeek(ctx context.Context, actor Actor, source domain.WeekRange, targetStart time.Time) ([]*domain.Shift, error) {
	if !source.End.After(source.Start) {
		return nil, invalid("sourceWeek", "end must be after start")
	}
	if targetStart.IsZero() {
		return nil, invalid("targetWeekStart", "is required")
	}
	if err := requireBusiness(OpCopy, actor); err != nil {
		return nil, err
	}

	originals, err := e.store.ListShifts(ctx, domain.ShiftFilter{
		OwnerID:      &actor.ID,
		StartsFrom:   &source.Start,
		StartsBefore: &source.End,
	})
	if err != nil {
		return nil, err
	}

	offset := targetStart.Sub(source.Start)
	now := e.now()
	copies := make([]*domain.Shift, 0, len(originals))
	events := make([]domain.ShiftEvent, 0, len(originals))
	for _, original := range originals {
		if original.Status == domain.ShiftStatusCancelled {
			continue
		}
		shift := &domain.Shift{
			ID:                             e.newID(),
			OwnerID:                        actor.ID,
			Status:                         domain.ShiftStatusDraft,
			Title:                          original.Title,
			Description:                    original.Description,
			StartTime:                      original.StartTime.Add(offset),
			EndTime:                        original.EndTime.Add(offset),
			HourlyRate:                     original.HourlyRate,
			Venue:                          original.Venue,
			RequiresCompletionConfirmation: original.RequiresCompletionConfirmation,
			Invitations:                    []domain.Invitation{},
			CreatedAt:                      now,
			UpdatedAt:                      now,
		}
		copies = append(copies, shift)
		events = append(events, e.event(shift, domain.EventShiftCreated, actor, "", "copied from "+original.ID.String(), now))
	}
	if len(copies) == 0 {
		return copies, nil
	}

	if err := e.store.CreateShifts(ctx, copies, events); err != nil {
		return nil, err
	}
	for i, shift := range copies {
		e.notify(ctx, shift, events[i:i+1])
	}
	return copies, nil
}

// PublishAllDrafts opens every draft of the caller that starts inside week.
// Each shift is its own compare-and-swap; a draft changed concurrently is
// skipped and left out of the result.
func (e *Engine) PublishAllDrafts(ctx context.Context, actor Actor, week domain.WeekRange) ([]*domain.Shift, error) {
	if !week.End.After(week.Start) {
		return nil, invalid("week", "end must be after start")
	}
	if err := requireBusiness(OpPublish, actor); err != nil {
		return nil, err
	}

	drafts, err := e.store.ListShifts(ctx, domain.ShiftFilter{
		OwnerID:      &actor.ID,
		Statuses:     []domain.ShiftStatus{domain.ShiftStatusDraft},
		StartsFrom:   &week.Start,
		StartsBefore: &week.End,
	})
	if err != nil {
		return nil, err
	}

	published := make([]*domain.Shift, 0, len(drafts))
	for _, draft := range drafts {
		shift, err := e.Publish(ctx, actor, draft.ID)
		if err != nil {
			var conflict *ConflictError
			var transition *InvalidTransitionError
			if errors.As(err, &conflict) || errors.As(err, &transition) || errors.Is(err, domain.ErrShiftNotFound) {
				e.logger.Info("skipped draft changed during bulk publish", "shift", draft.ID, "error", err)
				continue
			}
			return published, err
		}
		published = append(published, shift)
	}
	return published, nil
}
