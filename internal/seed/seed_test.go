package seed

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{nextID: 1, users: make(map[int64]*domain.User)}
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUsers) CreateUser(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	user.IsActive = true
	f.nextID++
	f.users[user.ID] = user
	return nil
}

func countByStatus(t *testing.T, store *lifecycle.MemoryStore) map[domain.ShiftStatus]int {
	t.Helper()
	shifts, err := store.ListShifts(context.Background(), domain.ShiftFilter{})
	if err != nil {
		t.Fatalf("list shifts: %v", err)
	}
	counts := make(map[domain.ShiftStatus]int)
	for _, shift := range shifts {
		counts[shift.Status]++
	}
	return counts
}

func TestMarketplace(t *testing.T) {
	users := newFakeUsers()
	store := lifecycle.NewMemoryStore()
	engine := lifecycle.New(store, users, lifecycle.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	summary, err := Marketplace(context.Background(), users, engine, "hash", weekStart)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if summary.Businesses != 3 || summary.Professionals != 5 || summary.Shifts != 18 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	counts := countByStatus(t, store)
	want := map[domain.ShiftStatus]int{
		domain.ShiftStatusDraft:     3,
		domain.ShiftStatusOpen:      3,
		domain.ShiftStatusConfirmed: 6,
		domain.ShiftStatusInvited:   6,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Fatalf("expected %d %s shifts, got %d (%v)", n, status, counts[status], counts)
		}
	}

	if _, err := Marketplace(context.Background(), users, engine, "hash", weekStart.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(users.users) != 8 {
		t.Fatalf("expected users to be reused on a second run, got %d", len(users.users))
	}
}
