package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"github.com/hubshift/marketplace/backend/internal/lifecycle"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

// ErrMalformed marks messages that will never succeed; they are dropped
// instead of requeued.
var ErrMalformed = errors.New("malformed shift event")

type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type CalendarSync interface {
	Apply(ctx context.Context, event domain.ShiftEvent) error
}

type Worker struct {
	users    lifecycle.Directory
	composer *Composer
	sender   Sender
	calendar CalendarSync
	logger   *slog.Logger
}

// NewWorker builds a worker; calendar may be nil to skip calendar sync.
func NewWorker(users lifecycle.Directory, composer *Composer, sender Sender, calendar CalendarSync, logger *slog.Logger) *Worker {
	return &Worker{
		users:    users,
		composer: composer,
		sender:   sender,
		calendar: calendar,
		logger:   logger,
	}
}

// Handle processes one queued event. The calendar goes first because it is
// idempotent; a requeued message then only repeats safe work.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var event domain.ShiftEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if event.Shift == nil {
		return fmt.Errorf("%w: event %s has no shift snapshot", ErrMalformed, event.ID)
	}

	if w.calendar != nil {
		if err := w.calendar.Apply(ctx, event); err != nil {
			return fmt.Errorf("sync calendar: %w", err)
		}
	}

	if !Emails(event.Type) {
		return nil
	}

	messages := make([]*mail.Msg, 0, len(event.Recipients))
	for _, id := range event.Recipients {
		user, err := w.users.GetUserByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				w.logger.Warn("skipping unknown recipient", "user", id, "event", event.ID)
				continue
			}
			return err
		}
		if !user.IsActive || user.Email == "" {
			continue
		}

		msg, err := w.composer.Compose(event, user)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		messages = append(messages, msg)
	}

	if len(messages) == 0 {
		return nil
	}
	return w.sender.DialAndSendWithContext(ctx, messages...)
}

// Consume acks handled deliveries, drops malformed ones and requeues the
// rest until ctx is cancelled or the channel closes.
func (w *Worker) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}

			err := w.Handle(ctx, msg.Body)
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, ErrMalformed):
				w.logger.Error("dropping shift event", "message", msg.MessageId, "error", err)
				_ = msg.Nack(false, false)
			default:
				w.logger.Error("failed to deliver shift event, requeueing", "message", msg.MessageId, "error", err)
				_ = msg.Nack(false, true)
			}
		}
	}
}
