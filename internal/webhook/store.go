package webhook

import (
	"context"

	"github.com/google/uuid"

	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// eventStore is the slice of *store.Store the engine needs. Narrowing to an
// interface lets tests exercise the delivery and retry state machine against
// an in-memory fake instead of a live Postgres instance.
type eventStore interface {
	CreateWebhookEvent(ctx context.Context, walletAddress string, txSignature *string, eventType string, payload []byte) (*domain.WebhookEvent, error)
	EventExistsForSignature(ctx context.Context, signature string) (bool, error)
	FindPendingEvents(ctx context.Context, limit int) ([]*domain.WebhookEvent, error)
	FindWallet(ctx context.Context, address string) (*domain.Wallet, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	IncrementAttempt(ctx context.Context, id uuid.UUID, lastError string) (*domain.WebhookEvent, error)
	CountByStatus(ctx context.Context, status domain.WebhookStatus) (int64, error)
}
