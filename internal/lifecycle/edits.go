package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

type TimesInput struct {
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}

// EditTimes moves the shift window without changing its status. A confirmed
// shift already has someone booked, so the change needs a reason and the
// assignee is told about it.
func (e *Engine) EditTimes(ctx context.Context, actor Actor, id uuid.UUID, in TimesInput) (*domain.Shift, error) {
	return e.Edit(ctx, actor, id, &in, DetailsInput{})
}

// DetailsInput is a partial update; nil fields are left untouched.
type DetailsInput struct {
	Title       *string
	HourlyRate  *float64
	Description *string
}

func (in DetailsInput) empty() bool {
	return in.Title == nil && in.HourlyRate == nil && in.Description == nil
}

func (in DetailsInput) validate() error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return invalid("title", "must not be empty")
	}
	if in.HourlyRate != nil {
		return validateRate(*in.HourlyRate)
	}
	return nil
}

func (e *Engine) EditDetails(ctx context.Context, actor Actor, id uuid.UUID, in DetailsInput) (*domain.Shift, error) {
	return e.Edit(ctx, actor, id, nil, in)
}

// Edit changes the window, the details, or both in a single write. Both parts
// are validated and checked against the current status before anything is
// applied, so a refused edit leaves the shift untouched.
func (e *Engine) Edit(ctx context.Context, actor Actor, id uuid.UUID, times *TimesInput, details DetailsInput) (*domain.Shift, error) {
	if times == nil && details.empty() {
		return nil, invalid("details", "nothing to change")
	}
	var reason string
	if times != nil {
		if err := validateWindow(times.StartTime, times.EndTime); err != nil {
			return nil, err
		}
		reason = strings.TrimSpace(times.Reason)
	}
	if err := details.validate(); err != nil {
		return nil, err
	}

	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		op := OpEditDetails
		if times != nil {
			op = OpEditTimes
		}
		if err := requireOwner(op, shift, actor); err != nil {
			return nil, err
		}
		if times != nil {
			if err := requireStatus(OpEditTimes, shift.Status); err != nil {
				return nil, err
			}
		}
		if !details.empty() {
			if err := requireStatus(OpEditDetails, shift.Status); err != nil {
				return nil, err
			}
		}

		var events []domain.ShiftEvent
		if times != nil {
			if shift.Status == domain.ShiftStatusConfirmed && reason == "" {
				return nil, invalid("reason", "is required when changing a confirmed shift")
			}

			shift.StartTime = times.StartTime
			shift.EndTime = times.EndTime
			if reason != "" {
				shift.ChangeReason = reason
			}

			var recipients []int64
			if shift.Status == domain.ShiftStatusConfirmed {
				recipients = assigneeOf(shift)
			}
			events = append(events, e.event(shift, domain.EventShiftTimesChanged, actor, shift.Status, reason, now, recipients...))
		}

		if !details.empty() {
			if details.Title != nil {
				shift.Title = strings.TrimSpace(*details.Title)
			}
			if details.HourlyRate != nil {
				shift.HourlyRate = *details.HourlyRate
			}
			if details.Description != nil {
				shift.Description = *details.Description
			}
			events = append(events, e.event(shift, domain.EventShiftDetailsChanged, actor, shift.Status, "", now))
		}
		return events, nil
	})
}

// Cancel retires a shift from any non-terminal status. The owner may cancel
// freely; the assignee has to say why once they have accepted. Pending
// invitations are withdrawn.
func (e *Engine) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*domain.Shift, error) {
	reason = strings.TrimSpace(reason)

	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		isOwner := shift.OwnerID == actor.ID
		if !isOwner && shift.Status == domain.ShiftStatusInvited {
			if _, invited := shift.Invitation(actor.ID); invited {
				return nil, &AuthorizationError{Op: OpCancel, ActorID: actor.ID, Reason: "an invited professional can only decline"}
			}
		}
		if !isOwner && !shift.IsAssignee(actor.ID) {
			return nil, &AuthorizationError{Op: OpCancel, ActorID: actor.ID, Reason: "only the business or the assigned professional can"}
		}
		if err := requireStatus(OpCancel, shift.Status); err != nil {
			if shift.Status == domain.ShiftStatusCancelled {
				return nil, &ConflictError{ShiftID: shift.ID, Message: "shift is already cancelled"}
			}
			return nil, err
		}
		if !isOwner && reason == "" {
			return nil, invalid("reason", "is required when the professional cancels")
		}

		from := shift.Status
		recipients := []int64{shift.OwnerID}
		recipients = append(recipients, assigneeOf(shift)...)
		for i := range shift.Invitations {
			inv := &shift.Invitations[i]
			if inv.Status == domain.InvitationStatusPending {
				inv.Status = domain.InvitationStatusWithdrawn
				inv.RespondedAt = &now
				if !shift.IsAssignee(inv.ProfessionalID) {
					recipients = append(recipients, inv.ProfessionalID)
				}
			}
		}

		shift.Status = domain.ShiftStatusCancelled
		shift.CancelReason = reason
		shift.InvitedFrom = ""
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftCancelled, actor, from, reason, now, recipients...)}, nil
	})
}
