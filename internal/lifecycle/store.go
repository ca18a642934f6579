package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

// Store persists shifts. UpdateShift and DeleteShift are compare-and-swap on
// shift.Version and return domain.ErrVersionConflict when the stored version
// moved on. Events passed alongside a write are stored in the same transaction.
type Store interface {
	CreateShifts(ctx context.Context, shifts []*domain.Shift, events []domain.ShiftEvent) error
	GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error)
	ListShifts(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error)
	UpdateShift(ctx context.Context, shift *domain.Shift, events ...domain.ShiftEvent) error
	DeleteShift(ctx context.Context, shift *domain.Shift) error
	ListShiftEvents(ctx context.Context, shiftID uuid.UUID) ([]domain.ShiftEvent, error)
}

// Directory resolves users; it returns domain.ErrUserNotFound for unknown ids.
type Directory interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// Notifier receives every committed transition.
type Notifier interface {
	Notify(ctx context.Context, event domain.ShiftEvent) error
}

// Notifiers fans an event out to several notifiers and joins their errors.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, event domain.ShiftEvent) error {
	var errs []error
	for _, notifier := range n {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, domain.ShiftEvent) error { return nil }
