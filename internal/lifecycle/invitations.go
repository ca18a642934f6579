package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

// Invite binds the shift to a single professional.
func (e *Engine) Invite(ctx context.Context, actor Actor, id uuid.UUID, professionalID int64) (*domain.Shift, error) {
	return e.InviteMany(ctx, actor, id, []int64{professionalID})
}

// InviteMany offers the shift to several professionals at once; the first to
// accept wins. With a single target the shift is assigned immediately.
func (e *Engine) InviteMany(ctx context.Context, actor Actor, id uuid.UUID, professionalIDs []int64) (*domain.Shift, error) {
	targets, err := e.resolveProfessionals(ctx, actor, professionalIDs)
	if err != nil {
		return nil, err
	}

	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		if err := requireOwner(OpInvite, shift, actor); err != nil {
			return nil, err
		}
		if err := requireStatus(OpInvite, shift.Status); err != nil {
			return nil, err
		}

		for _, target := range targets {
			invitation := domain.Invitation{
				ProfessionalID: target,
				Status:         domain.InvitationStatusPending,
				InvitedAt:      now,
			}
			if existing, ok := shift.Invitation(target); ok {
				*existing = invitation
			} else {
				shift.Invitations = append(shift.Invitations, invitation)
			}
		}

		from := shift.Status
		shift.InvitedFrom = from
		shift.Status = domain.ShiftStatusInvited
		shift.AssigneeID = nil
		if len(targets) == 1 {
			assignee := targets[0]
			shift.AssigneeID = &assignee
		}
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftInvited, actor, from, "", now, targets...)}, nil
	})
}

// resolveProfessionals de-duplicates the targets and checks each is an active professional.
func (e *Engine) resolveProfessionals(ctx context.Context, actor Actor, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, invalid("professionalIds", "at least one professional is required")
	}
	seen := make(map[int64]bool, len(ids))
	targets := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if id == actor.ID {
			return nil, invalid("professionalIds", "you cannot invite yourself")
		}

		user, err := e.users.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, invalid("professionalIds", "professional %d does not exist", id)
			}
			return nil, fmt.Errorf("look up professional %d: %w", id, err)
		}
		if user.Role != domain.RoleProfessional || !user.IsActive {
			return nil, invalid("professionalIds", "user %d is not an active professional", id)
		}
		targets = append(targets, id)
	}
	return targets, nil
}

// Accept confirms the caller on the shift. Professionals who were invited but
// arrive after someone else got it receive ConflictError.
func (e *Engine) Accept(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Shift, error) {
	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		invitation, err := e.respondable(OpAccept, shift, actor)
		if err != nil {
			return nil, err
		}

		from := shift.Status
		invitation.Status = domain.InvitationStatusAccepted
		invitation.RespondedAt = &now

		withdrawn := make([]int64, 0)
		for i := range shift.Invitations {
			other := &shift.Invitations[i]
			if other.ProfessionalID != actor.ID && other.Status == domain.InvitationStatusPending {
				other.Status = domain.InvitationStatusWithdrawn
				other.RespondedAt = &now
				withdrawn = append(withdrawn, other.ProfessionalID)
			}
		}

		assignee := actor.ID
		shift.AssigneeID = &assignee
		shift.Status = domain.ShiftStatusConfirmed

		events := []domain.ShiftEvent{e.event(shift, domain.EventShiftAccepted, actor, from, "", now, shift.OwnerID)}
		if len(withdrawn) > 0 {
			events = append(events, e.event(shift, domain.EventInvitationWithdrawn, actor, from, "accepted by another professional", now, withdrawn...))
		}
		return events, nil
	})
}

// Decline releases the caller's invitation. Once no invitation is pending the
// shift falls back to the status it had before the invite.
func (e *Engine) Decline(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Shift, error) {
	return e.apply(ctx, id, func(shift *domain.Shift, now time.Time) ([]domain.ShiftEvent, error) {
		invitation, err := e.respondable(OpDecline, shift, actor)
		if err != nil {
			return nil, err
		}

		from := shift.Status
		invitation.Status = domain.InvitationStatusDeclined
		invitation.RespondedAt = &now
		if shift.IsAssignee(actor.ID) {
			shift.AssigneeID = nil
		}

		if len(shift.PendingInvitees()) == 0 {
			shift.Status = shift.InvitedFrom
			if shift.Status != domain.ShiftStatusDraft {
				shift.Status = domain.ShiftStatusOpen
			}
			shift.InvitedFrom = ""
			shift.AssigneeID = nil
		}
		return []domain.ShiftEvent{e.event(shift, domain.EventShiftDeclined, actor, from, "", now, shift.OwnerID)}, nil
	})
}

// respondable finds the caller's pending invitation or explains why there is none.
func (e *Engine) respondable(op Operation, shift *domain.Shift, actor Actor) (*domain.Invitation, error) {
	invitation, ok := shift.Invitation(actor.ID)
	if !ok {
		return nil, &AuthorizationError{Op: op, ActorID: actor.ID, Reason: "you were not invited to this shift"}
	}

	switch shift.Status {
	case domain.ShiftStatusInvited:
		if invitation.Status != domain.InvitationStatusPending {
			return nil, &ConflictError{ShiftID: shift.ID, Message: fmt.Sprintf("your invitation is already %s", invitation.Status)}
		}
		return invitation, nil
	case domain.ShiftStatusDraft, domain.ShiftStatusOpen:
		return nil, &InvalidTransitionError{Op: op, Status: shift.Status}
	default:
		return nil, &ConflictError{ShiftID: shift.ID, Message: "shift is no longer available"}
	}
}
