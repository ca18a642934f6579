package lifecycle

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
)

// MemoryStore is an in-process Store. Every write is serialized by a single
// mutex, which gives the same compare-and-swap semantics as the SQL store.
type MemoryStore struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]*domain.Shift
	events map[uuid.UUID][]domain.ShiftEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shifts: make(map[uuid.UUID]*domain.Shift),
		events: make(map[uuid.UUID][]domain.ShiftEvent),
	}
}

func (m *MemoryStore) CreateShifts(ctx context.Context, shifts []*domain.Shift, events []domain.ShiftEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, shift := range shifts {
		shift.Version = 1
		m.shifts[shift.ID] = shift.Clone()
	}
	m.appendEvents(events)
	return nil
}

func (m *MemoryStore) GetShift(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shift, ok := m.shifts[id]
	if !ok {
		return nil, domain.ErrShiftNotFound
	}
	return shift.Clone(), nil
}

func (m *MemoryStore) ListShifts(ctx context.Context, filter domain.ShiftFilter) ([]*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shifts := make([]*domain.Shift, 0)
	for _, shift := range m.shifts {
		if matches(shift, filter) {
			shifts = append(shifts, shift.Clone())
		}
	}
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
	return shifts, nil
}

func (m *MemoryStore) UpdateShift(ctx context.Context, shift *domain.Shift, events ...domain.ShiftEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.shifts[shift.ID]
	if !ok {
		return domain.ErrShiftNotFound
	}
	if stored.Version != shift.Version {
		return domain.ErrVersionConflict
	}
	shift.Version++
	m.shifts[shift.ID] = shift.Clone()
	m.appendEvents(events)
	return nil
}

func (m *MemoryStore) DeleteShift(ctx context.Context, shift *domain.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.shifts[shift.ID]
	if !ok {
		return domain.ErrShiftNotFound
	}
	if stored.Version != shift.Version {
		return domain.ErrVersionConflict
	}
	delete(m.shifts, shift.ID)
	delete(m.events, shift.ID)
	return nil
}

func (m *MemoryStore) ListShiftEvents(ctx context.Context, shiftID uuid.UUID) ([]domain.ShiftEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.events[shiftID]), nil
}

func (m *MemoryStore) appendEvents(events []domain.ShiftEvent) {
	for _, event := range events {
		event.Shift = nil
		m.events[event.ShiftID] = append(m.events[event.ShiftID], event)
	}
}

func matches(shift *domain.Shift, filter domain.ShiftFilter) bool {
	if filter.OwnerID != nil && shift.OwnerID != *filter.OwnerID {
		return false
	}
	if filter.ParticipantID != nil {
		_, invited := shift.Invitation(*filter.ParticipantID)
		participant := shift.IsAssignee(*filter.ParticipantID) || invited
		if !participant && !(filter.IncludeOpen && shift.Status == domain.ShiftStatusOpen) {
			return false
		}
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, shift.Status) {
		return false
	}
	if filter.StartsFrom != nil && shift.StartTime.Before(*filter.StartsFrom) {
		return false
	}
	if filter.StartsBefore != nil && !shift.StartTime.Before(*filter.StartsBefore) {
		return false
	}
	return true
}
