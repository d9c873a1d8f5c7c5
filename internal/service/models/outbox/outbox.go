package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
)

// OutboxMessage is an event waiting to be published to RabbitMQ.
type OutboxMessage struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// FailedAttempt is what the relay records after a publish error.
type FailedAttempt struct {
	RetryCount  int
	LastError   string
	NextRetryAt time.Time
}

// Exhausted reports whether msg has no delivery attempts left.
func (m OutboxMessage) Exhausted() bool {
	return m.RetryCount >= m.MaxRetries
}

type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderPaid    EventType = "order.paid"
)

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	Type           EventType   `json:"type"`
	OrderID        int64       `json:"orderId"`
	UserID         int64       `json:"userId"`
	TotalCents     money.Cents `json:"totalCents"`
	Status         string      `json:"status"`
	TransactionRef string      `json:"transactionRef,omitempty"`
	OccurredAt     time.Time   `json:"occurredAt"`
}

// Target says where order events go.
type Target struct {
	Queue      string
	MaxRetries int
}

// NewOrderEventMessage encodes evt as a pending message for target.
func NewOrderEventMessage(target Target, evt OrderEvent) (OutboxMessage, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("failed to marshal %s event: %w", evt.Type, err)
	}

	return OutboxMessage{
		QueueName:   target.Queue,
		RoutingKey:  target.Queue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  target.MaxRetries,
		CreatedAt:   evt.OccurredAt,
		UpdatedAt:   evt.OccurredAt,
		NextRetryAt: evt.OccurredAt,
	}, nil
}
