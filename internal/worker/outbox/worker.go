package outbox

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/config"
	"github.com/corray333/backend-labs/canteen/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/streadway/amqp"
)

// maxBackoffShift caps the retry delay at RetryBase * 2^10.
const maxBackoffShift = 10

// publisher sends one message and reports whether the broker took it.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Worker relays committed order events from the outbox table to RabbitMQ.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	retryBase    time.Duration
	now          func() time.Time
	stopCh       chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
	cfg config.OutboxConfig,
) *Worker {
	return &Worker{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		retryBase:    cfg.RetryBase,
		now:          func() time.Time { return time.Now().UTC() },
		stopCh:       make(chan struct{}),
	}
}

// Start polls the outbox until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessages publishes one batch of due messages and returns how many
// were delivered.
func (w *Worker) processMessages(ctx context.Context) int {
	messages, err := w.outboxRepo.ListDue(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get pending messages from outbox", "error", err)

		return 0
	}

	if len(messages) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Processing outbox messages", "count", len(messages))

	delivered := 0
	for _, msg := range messages {
		err := w.publisher.Publish(
			msg.ExchangeName,
			msg.RoutingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  msg.ContentType,
				DeliveryMode: amqp.Persistent,
				MessageId:    strconv.FormatInt(msg.ID, 10),
				Timestamp:    msg.CreatedAt,
				Body:         msg.Payload,
			},
		)
		if err != nil {
			newRetryCount := msg.RetryCount + 1
			nextRetryAt := w.now().Add(w.backoff(newRetryCount))

			slog.WarnContext(ctx, "Failed to publish message from outbox, will retry",
				"outbox_id", msg.ID,
				"retry_count", newRetryCount,
				"max_retries", msg.MaxRetries,
				"next_retry", nextRetryAt,
				"error", err,
			)

			attempt := outbox.FailedAttempt{RetryCount: newRetryCount, LastError: err.Error(), NextRetryAt: nextRetryAt}
			if err := w.outboxRepo.ScheduleRetry(ctx, msg.ID, attempt); err != nil {
				slog.ErrorContext(ctx, "Failed to update retry information", "outbox_id", msg.ID, "error", err)
			}
			if newRetryCount >= msg.MaxRetries {
				slog.ErrorContext(ctx, "Outbox message exhausted its retries", "outbox_id", msg.ID, "routing_key", msg.RoutingKey)
			}

			continue
		}

		delivered++
		if err := w.outboxRepo.MarkPublished(ctx, msg.ID); err != nil {
			// Left in place, the message is published again on the next poll.
			slog.ErrorContext(ctx, "Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)
		}
	}

	return delivered
}

// backoff doubles the delay with each failed attempt.
func (w *Worker) backoff(retryCount int) time.Duration {
	return w.retryBase << min(retryCount, maxBackoffShift)
}
