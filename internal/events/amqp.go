package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ Publisher = (*AMQPPublisher)(nil)

// AMQPPublisher publishes JSON events to RabbitMQ over a single long-lived
// connection. An amqp.Channel must not be used from several goroutines at
// once, so Publish serializes on mu.
type AMQPPublisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares every queue in Queues.
// Queues are durable so messages survive a broker restart.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dialing broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: opening channel: %w", err)
	}

	for _, q := range Queues {
		if _, err := ch.QueueDeclare(
			q,     // name
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("events: declaring queue %s: %w", q, err)
		}
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

// Publish marshals payload to JSON and sends it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, payload any) error {
	msg, err := newPublishing(payload, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		return fmt.Errorf("events: publishing to %s: %w", queue, err)
	}
	return nil
}

// Close closes the channel and then the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("events: closing connection: %w", err)
	}
	if chErr != nil {
		return fmt.Errorf("events: closing channel: %w", chErr)
	}
	return nil
}

func newPublishing(payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("events: marshaling payload: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}
