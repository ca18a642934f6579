// Package notify carries committed shift events from the API to the
// notification worker over RabbitMQ, and turns them into emails there.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hubshift/marketplace/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareQueue makes sure the durable event queue exists.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // keep the queue while no worker is connected
		false,
		false,
		nil,
	)
}

type Publisher struct {
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, queue string, timeout time.Duration) *Publisher {
	return &Publisher{ch: ch, queue: queue, timeout: timeout}
}

func (p *Publisher) Notify(ctx context.Context, event domain.ShiftEvent) error {
	if len(event.Recipients) == 0 {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}
