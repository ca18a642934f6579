package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hubshift/marketplace/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

type fakeDirectory map[int64]*domain.User

func (d fakeDirectory) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := d[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*mail.Msg
	err  error
}

func (s *fakeSender) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, messages...)
	return nil
}

type fakeCalendar struct {
	applied []domain.EventType
	err     error
}

func (c *fakeCalendar) Apply(ctx context.Context, event domain.ShiftEvent) error {
	c.applied = append(c.applied, event.Type)
	return c.err
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   int
	dropped int
	requeue int
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if requeue {
		a.requeue++
	} else {
		a.dropped++
	}
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func testWorker(t *testing.T, sender *fakeSender, cal CalendarSync) *Worker {
	t.Helper()
	composer, err := NewComposer("shifts@hubshift.test", "https://app.hubshift.test/", time.UTC)
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	users := fakeDirectory{
		1:  {ID: 1, FullName: "Eastside Barbers", Email: "owner@eastside.test", IsActive: true},
		10: {ID: 10, FullName: "Sam Lee", Email: "sam@pros.test", IsActive: true},
		11: {ID: 11, FullName: "Jo Park", Email: "jo@pros.test", IsActive: false},
	}
	return NewWorker(users, composer, sender, cal, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func eventBody(t *testing.T, typ domain.EventType, recipients ...int64) []byte {
	t.Helper()
	start := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	event := domain.ShiftEvent{
		ID:         uuid.New(),
		ShiftID:    uuid.New(),
		Type:       typ,
		ActorID:    1,
		Recipients: recipients,
		OccurredAt: start,
		Reason:     "running late",
		Shift: &domain.Shift{
			ID:         uuid.New(),
			Title:      "Friday fade session",
			Status:     domain.ShiftStatusConfirmed,
			StartTime:  start,
			EndTime:    start.Add(4 * time.Hour),
			HourlyRate: 45,
		},
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleMailsActiveRecipients(t *testing.T) {
	sender := &fakeSender{}
	cal := &fakeCalendar{}
	w := testWorker(t, sender, cal)

	if err := w.Handle(context.Background(), eventBody(t, domain.EventShiftTimesChanged, 10, 11, 404)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	to, err := msg.GetRecipients()
	if err != nil || len(to) != 1 || to[0] != "sam@pros.test" {
		t.Fatalf("expected mail to sam, got %v %v", to, err)
	}
	subject := msg.GetGenHeader(mail.HeaderSubject)
	if len(subject) != 1 || subject[0] != "Shift times changed: Friday fade session" {
		t.Fatalf("unexpected subject %v", subject)
	}

	if len(cal.applied) != 1 || cal.applied[0] != domain.EventShiftTimesChanged {
		t.Fatalf("expected calendar sync, got %v", cal.applied)
	}
}

func TestHandleSkipsUnmailedEvents(t *testing.T) {
	sender := &fakeSender{}
	w := testWorker(t, sender, nil)

	if err := w.Handle(context.Background(), eventBody(t, domain.EventShiftPublished, 10)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
}

func TestHandleMalformed(t *testing.T) {
	w := testWorker(t, &fakeSender{}, nil)

	for _, body := range [][]byte{[]byte("{not json"), []byte(`{"type":"shift.accepted"}`)} {
		if err := w.Handle(context.Background(), body); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %s, got %v", body, err)
		}
	}
}

func TestConsumeAcksDropsAndRequeues(t *testing.T) {
	sender := &fakeSender{}
	w := testWorker(t, sender, nil)
	ack := &fakeAcknowledger{}

	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: eventBody(t, domain.EventShiftAccepted, 1)}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("garbage")}
	close(deliveries)
	w.Consume(context.Background(), deliveries)

	sender.err = errors.New("smtp unavailable")
	retry := make(chan amqp.Delivery, 1)
	retry <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: eventBody(t, domain.EventShiftCancelled, 10)}
	close(retry)
	w.Consume(context.Background(), retry)

	if ack.acked != 1 || ack.dropped != 1 || ack.requeue != 1 {
		t.Fatalf("expected 1 ack, 1 drop, 1 requeue, got %d %d %d", ack.acked, ack.dropped, ack.requeue)
	}
}

func TestCalendarFailureRequeuesBeforeMailing(t *testing.T) {
	sender := &fakeSender{}
	w := testWorker(t, sender, &fakeCalendar{err: errors.New("quota exceeded")})

	err := w.Handle(context.Background(), eventBody(t, domain.EventShiftAccepted, 1))
	if err == nil || errors.Is(err, ErrMalformed) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email before the calendar succeeded")
	}
}
