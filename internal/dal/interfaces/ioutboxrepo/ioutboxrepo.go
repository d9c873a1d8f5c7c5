package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
)

// IOutboxRepository stores order events until the relay has published them.
type IOutboxRepository interface {
	// Insert enqueues msg. Inside a unit of work it commits with the order rows.
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// ListDue returns up to limit messages with attempts left whose next
	// attempt is not after now, earliest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error)

	// MarkPublished removes a delivered message.
	MarkPublished(ctx context.Context, id int64) error

	// ScheduleRetry records a failed delivery attempt.
	ScheduleRetry(ctx context.Context, id int64, attempt outbox.FailedAttempt) error
}
