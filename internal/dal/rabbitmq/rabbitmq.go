// Package rabbitmq publishes outbox order events to a durable queue with
// publisher confirms.
package rabbitmq

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/streadway/amqp"
)

const defaultConfirmTimeout = 5 * time.Second

var ErrNotConfirmed = errors.New("rabbitmq: publish not confirmed by broker")

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends outbox messages to the event target queue and returns only
// once the broker has acknowledged each one.
type Publisher struct {
	conn           io.Closer
	channel        amqpChannel
	queue          string
	confirms       chan amqp.Confirmation
	confirmTimeout time.Duration

	mu      sync.Mutex
	nextTag uint64
}

// MustNewPublisher connects to RabbitMQ and declares target's queue.
func MustNewPublisher(cfg config.RabbitMQConfig, target outbox.Target) *Publisher {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	p, err := newPublisher(conn, channel, target)
	if err != nil {
		_ = conn.Close()
		panic(err)
	}

	slog.Info("RabbitMQ connected", "host", cfg.Host, "queue", target.Queue)

	return p
}

func newPublisher(conn io.Closer, channel amqpChannel, target outbox.Target) (*Publisher, error) {
	if target.Queue == "" {
		return nil, errors.New("rabbitmq: event queue name is empty")
	}
	if _, err := channel.QueueDeclare(target.Queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %q: %w", target.Queue, err)
	}
	if err := channel.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &Publisher{
		conn:           conn,
		channel:        channel,
		queue:          target.Queue,
		confirms:       channel.NotifyPublish(make(chan amqp.Confirmation, 1)),
		confirmTimeout: defaultConfirmTimeout,
		nextTag:        1,
	}, nil
}

// Queue is the name of the declared event queue.
func (p *Publisher) Queue() string {
	return p.queue
}

// Publish sends msg and waits for the broker ack. A nack, a timeout or a
// closed channel is an error, so the caller keeps the message for retry.
func (p *Publisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Publish(exchange, key, mandatory, immediate, msg); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", key, err)
	}
	tag := p.nextTag
	p.nextTag++

	timeout := time.NewTimer(p.confirmTimeout)
	defer timeout.Stop()

	for {
		select {
		case c, ok := <-p.confirms:
			if !ok {
				return fmt.Errorf("%w: channel closed", ErrNotConfirmed)
			}
			// Acks for earlier publishes that timed out arrive late.
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return fmt.Errorf("%w: nack for message %s", ErrNotConfirmed, msg.MessageId)
			}

			return nil
		case <-timeout.C:
			return fmt.Errorf("%w: no ack for message %s after %s", ErrNotConfirmed, msg.MessageId, p.confirmTimeout)
		}
	}
}

// Close closes the channel and connection for graceful shutdown.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}

	return nil
}
