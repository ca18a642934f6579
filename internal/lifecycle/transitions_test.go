package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

type transitionCase struct {
	op   Operation
	run  func(e *Engine, id uuid.UUID) (*domain.Shift, error)
	want func(from domain.ShiftStatus) domain.ShiftStatus
}

func to(status domain.ShiftStatus) func(domain.ShiftStatus) domain.ShiftStatus {
	return func(domain.ShiftStatus) domain.ShiftStatus { return status }
}

func unchanged(from domain.ShiftStatus) domain.ShiftStatus { return from }

func transitionCases() []transitionCase {
	ctx := context.Background()
	title := "Head barber"
	return []transitionCase{
		{OpPublish, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Publish(ctx, owner, id)
		}, to(domain.ShiftStatusOpen)},
		{OpInvite, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Invite(ctx, owner, id, proB)
		}, to(domain.ShiftStatusInvited)},
		{OpAccept, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Accept(ctx, pro(proA), id)
		}, to(domain.ShiftStatusConfirmed)},
		{OpDecline, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Decline(ctx, pro(proA), id)
		}, to(domain.ShiftStatusOpen)},
		{OpEditTimes, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.EditTimes(ctx, owner, id, TimesInput{
				StartTime: testNow.Add(3 * time.Hour),
				EndTime:   testNow.Add(9 * time.Hour),
				Reason:    "venue opens later",
			})
		}, unchanged},
		{OpEditDetails, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.EditDetails(ctx, owner, id, DetailsInput{Title: &title})
		}, unchanged},
		{OpCancel, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Cancel(ctx, owner, id, "")
		}, to(domain.ShiftStatusCancelled)},
		{OpClockIn, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.ClockIn(ctx, pro(proA), id, venue)
		}, to(domain.ShiftStatusOngoing)},
		{OpFinish, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Finish(ctx, pro(proA), id)
		}, to(domain.ShiftStatusCompleted)},
		{OpComplete, func(e *Engine, id uuid.UUID) (*domain.Shift, error) {
			return e.Complete(ctx, owner, id)
		}, to(domain.ShiftStatusCompleted)},
	}
}

// Every operation is tried from every status: allowed edges must land on the
// documented status, every other combination must be rejected without a write.
func TestTransitionsFollowLifecycleGraph(t *testing.T) {
	for _, tc := range transitionCases() {
		for _, from := range domain.ShiftStatuses {
			t.Run(string(tc.op)+"/"+string(from), func(t *testing.T) {
				f := newFixture(t)
				shift := f.seed(t, from)

				got, err := tc.run(f.engine, shift.ID)
				stored := f.reload(t, shift.ID)

				if CanApply(tc.op, from) {
					if err != nil {
						t.Fatalf("expected success, got %v", err)
					}
					if want := tc.want(from); got.Status != want || stored.Status != want {
						t.Fatalf("expected %s, got returned %s stored %s", want, got.Status, stored.Status)
					}
					if stored.Version != shift.Version+1 {
						t.Fatalf("expected version %d, got %d", shift.Version+1, stored.Version)
					}
					return
				}

				if err == nil {
					t.Fatalf("expected rejection, got status %s", got.Status)
				}
				var transition *InvalidTransitionError
				var conflict *ConflictError
				var authz *AuthorizationError
				if !errors.As(err, &transition) && !errors.As(err, &conflict) && !errors.As(err, &authz) {
					t.Fatalf("expected a lifecycle rejection, got %T: %v", err, err)
				}
				if stored.Status != from || stored.Version != shift.Version {
					t.Fatalf("expected shift untouched, got %s v%d", stored.Status, stored.Version)
				}
			})
		}
	}
}

func TestTerminalStatusesAcceptNoOperation(t *testing.T) {
	for _, status := range domain.ShiftStatuses {
		if !status.IsTerminal() {
			continue
		}
		for op := range allowedFrom {
			if CanApply(op, status) {
				t.Fatalf("expected %s to be closed from terminal status %s", op, status)
			}
		}
	}
}

func TestRejectionKindsAreDistinct(t *testing.T) {
	f := newFixture(t)
	shift := f.seed(t, domain.ShiftStatusOpen)

	_, err := f.engine.ClockIn(context.Background(), pro(proA), shift.ID, venue)
	var authz *AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("expected AuthorizationError for unassigned shift, got %v", err)
	}

	_, err = f.engine.Finish(context.Background(), pro(proA), f.seed(t, domain.ShiftStatusConfirmed).ID)
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.Status != domain.ShiftStatusConfirmed || transition.Op != OpFinish {
		t.Fatalf("expected finish from confirmed, got %s from %s", transition.Op, transition.Status)
	}
}

func TestParseShiftStatusAliases(t *testing.T) {
	cases := map[string]domain.ShiftStatus{
		"pending":            domain.ShiftStatusInvited,
		"filled":             domain.ShiftStatusConfirmed,
		" Open ":             domain.ShiftStatusOpen,
		"pending_completion": domain.ShiftStatusPendingCompletion,
	}
	for in, want := range cases {
		got, err := domain.ParseShiftStatus(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := domain.ParseShiftStatus("in_progress"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}
