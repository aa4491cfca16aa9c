// Package rabbit publishes domain events to a RabbitMQ topic exchange.
// It serves two roles: as the broker behind the River dispatcher, and as
// a direct synchronous domain.EventPublisher for deployments that want
// the fire-and-forget behavior without the outbox.
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/basecloud/tenantd/internal/domain"
)

// exchange is the topic exchange the platform's consumers bind to.
const exchange = "amq.topic"

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// Publisher holds one connection and one channel to the broker. It is an
// explicitly constructed dependency with a startup/shutdown lifecycle,
// not a process-wide singleton.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New dials the broker and opens a channel.
func New(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

// PublishTopic sends a serialized event under the given routing key.
// At-most-once from this side: no retry, a transport failure surfaces to
// the caller.
func (p *Publisher) PublishTopic(ctx context.Context, routingKey string, body []byte) error {
	err := p.ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", routingKey, err)
	}
	return nil
}

// Publish serializes the payload and sends it, satisfying
// domain.EventPublisher for synchronous use.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event payload: %w", err)
	}
	return p.PublishTopic(ctx, routingKey, body)
}
