package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/canteen/internal/dal/postgres"
	"github.com/corray333/backend-labs/canteen/internal/service/models/outbox"
	"github.com/jackc/pgx/v5"
)

// outboxDAL represents the outbox table row.
type outboxDAL struct {
	Id           int64     `db:"id"`
	QueueName    string    `db:"queue_name"`
	ExchangeName string    `db:"exchange_name"`
	RoutingKey   string    `db:"routing_key"`
	Payload      []byte    `db:"payload"`
	ContentType  string    `db:"content_type"`
	RetryCount   int       `db:"retry_count"`
	MaxRetries   int       `db:"max_retries"`
	LastError    string    `db:"last_error"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	NextRetryAt  time.Time `db:"next_retry_at"`
}

// ToModel converts outboxDAL to outbox.OutboxMessage.
func (d *outboxDAL) ToModel() outbox.OutboxMessage {
	return outbox.OutboxMessage{
		ID:           d.Id,
		QueueName:    d.QueueName,
		ExchangeName: d.ExchangeName,
		RoutingKey:   d.RoutingKey,
		Payload:      d.Payload,
		ContentType:  d.ContentType,
		RetryCount:   d.RetryCount,
		MaxRetries:   d.MaxRetries,
		LastError:    d.LastError,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		NextRetryAt:  d.NextRetryAt,
	}
}

var outboxColumns = []string{
	"id",
	"queue_name",
	"exchange_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxRepository keeps pending order events in Postgres. Bound to a
// transaction, inserts commit together with the order rows.
type OutboxRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewOutboxRepository creates a new outbox repository.
func NewOutboxRepository(conn postgres.GenericConn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	query, args, err := r.sb.Insert("outbox").
		Columns(outboxColumns[1:]...).
		Values(
			msg.QueueName,
			msg.ExchangeName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return postgres.Wrap("failed to insert outbox message", err)
	}

	return nil
}

// ListDue skips rows locked by another relay's transaction.
func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.OutboxMessage, error) {
	query, args, err := r.sb.Select(outboxColumns...).
		From("outbox").
		Where(sq.LtOrEq{"next_retry_at": now}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("next_retry_at", "id").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.Wrap("failed to query outbox messages", err)
	}

	dals, err := pgx.CollectRows(rows, pgx.RowToStructByName[outboxDAL])
	if err != nil {
		return nil, postgres.Wrap("failed to scan outbox messages", err)
	}

	messages := make([]outbox.OutboxMessage, len(dals))
	for i := range dals {
		messages[i] = dals[i].ToModel()
	}

	return messages, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("outbox").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return postgres.Wrap("failed to delete outbox message", err)
	}

	return nil
}

func (r *OutboxRepository) ScheduleRetry(ctx context.Context, id int64, attempt outbox.FailedAttempt) error {
	query, args, err := r.sb.Update("outbox").
		Set("retry_count", attempt.RetryCount).
		Set("last_error", attempt.LastError).
		Set("next_retry_at", attempt.NextRetryAt).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return postgres.Wrap("failed to update outbox message", err)
	}

	return nil
}
