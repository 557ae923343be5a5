package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"opserp/internal/core/id"
	"opserp/internal/domain/events"
	"opserp/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed deliveries after which a message
// is marked failed and becomes eligible for the dead letter queue.
const MaxOutboxRetries = 5

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// Event decodes the payload of a purchase request message.
func (m *OutboxMessage) Event() (events.StatusChanged, error) {
	var ev events.StatusChanged
	if err := json.Unmarshal(m.Payload, &ev); err != nil {
		return ev, fmt.Errorf("decode outbox payload %s: %w", m.ID, err)
	}
	return ev, nil
}

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

var _ events.Publisher = (*OutboxPublisher)(nil)

// OutboxPublisher writes status-change events to the outbox table.
type OutboxPublisher struct {
	txManager *TxManager
}

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish writes an event to the outbox within the current transaction.
// It must be called inside a transaction so that a rollback discards the event.
func (p *OutboxPublisher) Publish(ctx context.Context, event events.StatusChanged) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = tx.Exec(ctx, insertOutboxSQL,
		id.New(), events.AggregatePurchaseRequest, event.RequestID, event.Type,
		payload, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers outbox messages to the outside world.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay reads pending messages and hands them to an OutboxHandler.
// Used by the worker binary.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		txManager: txManager,
		batchSize: batchSize,
		handler:   handler,
	}
}

// ProcessBatch fetches and processes pending messages.
// The batch runs in one transaction so that SKIP LOCKED keeps concurrent
// relays from delivering the same message. Returns the number delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			ok, err := r.processMessage(ctx, q, msg)
			if err != nil {
				return err
			}
			if ok {
				processed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

// processMessage delivers one message and records the outcome.
// A delivery failure is not returned as an error; only bookkeeping failures are.
func (r *OutboxRelay) processMessage(ctx context.Context, q Querier, msg *OutboxMessage) (bool, error) {
	if herr := r.handler.Handle(ctx, msg); herr != nil {
		logger.Warn(ctx, "outbox delivery failed",
			"message_id", msg.ID,
			"event_type", msg.EventType,
			"retry", msg.RetryCount+1,
			"error", herr,
		)

		// Linear backoff, one minute per attempt.
		nextRetry := time.Now().UTC().Add(time.Duration(msg.RetryCount+1) * time.Minute)
		_, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = retry_count + 1,
			    last_error = $1,
			    next_retry_at = $2,
			    status = CASE WHEN retry_count + 1 >= $3 THEN $4 ELSE status END
			WHERE id = $5
		`, herr.Error(), nextRetry, MaxOutboxRetries, OutboxStatusFailed, msg.ID)
		if err != nil {
			return false, fmt.Errorf("update failed message: %w", err)
		}
		return false, nil
	}

	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = $2
		WHERE id = $3
	`, OutboxStatusPublished, time.Now().UTC(), msg.ID)
	if err != nil {
		return false, fmt.Errorf("mark message published: %w", err)
	}
	return true, nil
}

// MoveToDLQ moves failed messages to the dead letter queue.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1 AND retry_count >= $2
			RETURNING *
		)
		INSERT INTO sys_outbox_dlq
		SELECT *, NOW() AS failed_at, last_error AS failure_reason FROM moved
	`, OutboxStatusFailed, MaxOutboxRetries)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

// Run polls the outbox until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.ProcessBatch(ctx)
		if err != nil {
			logger.Error(ctx, "outbox batch failed", "error", err)
		} else if n > 0 {
			logger.Debug(ctx, "outbox batch delivered", "count", n)
		}

		if moved, err := r.MoveToDLQ(ctx); err != nil {
			logger.Error(ctx, "outbox DLQ sweep failed", "error", err)
		} else if moved > 0 {
			logger.Warn(ctx, "outbox messages moved to DLQ", "count", moved)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
