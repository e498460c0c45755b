package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// CreateWebhookEvent inserts a new pending event row.
func (s *Store) CreateWebhookEvent(ctx context.Context, walletAddress string, txSignature *string, eventType string, payload []byte) (*domain.WebhookEvent, error) {
	id := uuid.New()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO webhook_events (id, wallet_address, transaction_signature, event_type, payload, status, attempts)
		VALUES ($1, $2, $3, $4, $5, 'pending', 0)
		RETURNING id, wallet_address, transaction_signature, event_type, payload, status, attempts, last_attempt_at, delivered_at, last_error, created_at
	`, id, walletAddress, txSignature, eventType, payload)

	return scanWebhookEvent(row)
}

// EventExistsForSignature is the fast existence probe that makes the
// sync-to-webhook hand-off idempotent.
func (s *Store) EventExistsForSignature(ctx context.Context, signature string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM webhook_events WHERE transaction_signature = $1)`, signature).Scan(&exists)
	if err != nil {
		return false, apperr.Wrap(apperr.KindDatabase, err, "check webhook event exists")
	}
	return exists, nil
}

// FindPendingEvents returns up to limit oldest-first pending events for the
// retry driver.
func (s *Store) FindPendingEvents(ctx context.Context, limit int) ([]*domain.WebhookEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, wallet_address, transaction_signature, event_type, payload, status, attempts, last_attempt_at, delivered_at, last_error, created_at
		FROM webhook_events
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "find pending events")
	}
	defer rows.Close()

	var out []*domain.WebhookEvent
	for rows.Next() {
		ev, err := scanWebhookEventRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "iterate pending events")
	}
	return out, nil
}

// FindWebhookEventsByWallet returns a paginated event log for a wallet.
func (s *Store) FindWebhookEventsByWallet(ctx context.Context, address string, limit, offset int) ([]*domain.WebhookEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, wallet_address, transaction_signature, event_type, payload, status, attempts, last_attempt_at, delivered_at, last_error, created_at
		FROM webhook_events
		WHERE wallet_address = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, address, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "list webhook events")
	}
	defer rows.Close()

	var out []*domain.WebhookEvent
	for rows.Next() {
		ev, err := scanWebhookEventRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "iterate webhook events")
	}
	return out, nil
}

// MarkDelivered transitions an event to the terminal delivered state.
func (s *Store) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		UPDATE webhook_events
		SET status = 'delivered', delivered_at = $1, attempts = attempts + 1, last_attempt_at = $1
		WHERE id = $2
	`, now, id)
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, err, "mark delivered")
	}
	return nil
}

// MarkFailed transitions an event to the terminal failed state.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		UPDATE webhook_events
		SET status = 'failed', last_error = $1, attempts = attempts + 1, last_attempt_at = $2
		WHERE id = $3
	`, lastError, now, id)
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, err, "mark failed")
	}
	return nil
}

// IncrementAttempt records a non-terminal retry attempt and returns the
// updated row so callers can inspect the new attempt count.
func (s *Store) IncrementAttempt(ctx context.Context, id uuid.UUID, lastError string) (*domain.WebhookEvent, error) {
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		UPDATE webhook_events
		SET attempts = attempts + 1, last_attempt_at = $1, last_error = COALESCE($2, last_error)
		WHERE id = $3
		RETURNING id, wallet_address, transaction_signature, event_type, payload, status, attempts, last_attempt_at, delivered_at, last_error, created_at
	`, now, lastError, id)
	return scanWebhookEvent(row)
}

// CountByStatus returns the number of events currently in status.
func (s *Store) CountByStatus(ctx context.Context, status domain.WebhookStatus) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_events WHERE status = $1`, string(status)).Scan(&count)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindDatabase, err, "count events by status")
	}
	return count, nil
}

func scanWebhookEvent(row pgx.Row) (*domain.WebhookEvent, error) {
	var ev domain.WebhookEvent
	var status string
	if err := row.Scan(&ev.ID, &ev.WalletAddress, &ev.TransactionSignature, &ev.EventType, &ev.Payload,
		&status, &ev.Attempts, &ev.LastAttemptAt, &ev.DeliveredAt, &ev.LastError, &ev.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "webhook event not found")
		}
		return nil, apperr.Wrap(apperr.KindDatabase, err, "scan webhook event")
	}
	ev.Status = domain.WebhookStatus(status)
	return &ev, nil
}

func scanWebhookEventRow(rows pgx.Rows) (*domain.WebhookEvent, error) {
	var ev domain.WebhookEvent
	var status string
	if err := rows.Scan(&ev.ID, &ev.WalletAddress, &ev.TransactionSignature, &ev.EventType, &ev.Payload,
		&status, &ev.Attempts, &ev.LastAttemptAt, &ev.DeliveredAt, &ev.LastError, &ev.CreatedAt); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "scan webhook event")
	}
	ev.Status = domain.WebhookStatus(status)
	return &ev, nil
}
