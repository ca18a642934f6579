package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/geo"
)

// ClockIn starts a confirmed shift when the assignee reports a position
// inside the venue geofence. Reaching the boundary exactly counts as inside.
func (e *Engine) ClockIn(ctx context.Context, actor Actor, id uuid.UUID, at domain.Location) (*domain.Shift, error) {
	if err := geo.Validate(at); err != nil {
		return nil, invalid("location", "%s", err.Error())
	}

	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		if err := requireAssignee(OpClockIn, shift, actor); err != nil {
			return nil, err
		}
		if shift.ClockInTime != nil {
			return nil, &ConflictError{ShiftID: shift.ID, Message: "you have already clocked in to this shift"}
		}
		if err := requireStatus(OpClockIn, shift.Status); err != nil {
			return nil, err
		}

		inside, distance := geo.Within(shift.Venue, at, e.radius)
		if !inside {
			return nil, &GeofenceError{DistanceMeters: distance, RadiusMeters: e.radius}
		}

		from := shift.Status
		shift.ClockInTime = &now
		shift.Status = domain.ShiftStatusOngoing
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftClockedIn, actor, from, "", now, shift.OwnerID)}, nil
	})
}

// Finish clocks the assignee out. Shifts that need the business to sign off
// wait in pending_completion.
func (e *Engine) Finish(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Shift, error) {
	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		if err := requireAssignee(OpFinish, shift, actor); err != nil {
			return nil, err
		}
		if err := requireStatus(OpFinish, shift.Status); err != nil {
			return nil, err
		}

		from := shift.Status
		shift.ClockOutTime = &now
		shift.Status = domain.ShiftStatusCompleted
		if shift.RequiresCompletionConfirmation {
			shift.Status = domain.ShiftStatusPendingCompletion
		}
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftFinished, actor, from, "", now, shift.OwnerID)}, nil
	})
}

func (e *Engine) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Shift, error) {
	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		if err := requireOwner(OpComplete, shift, actor); err != nil {
			return nil, err
		}
		if err := requireStatus(OpComplete, shift.Status); err != nil {
			return nil, err
		}

		from := shift.Status
		shift.Status = domain.ShiftStatusCompleted
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftCompleted, actor, from, "", now, assigneeOf(shift)...)}, nil
	})
}
