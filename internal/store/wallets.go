package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// UpsertWallet registers a wallet, or updates an existing one idempotently:
// a nil/empty webhookURL never clobbers an already-configured URL.
func (s *Store) UpsertWallet(ctx context.Context, address string, webhookURL *string) (*domain.Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO wallets (address, webhook_url)
		VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET webhook_url = COALESCE(EXCLUDED.webhook_url, wallets.webhook_url)
		RETURNING address, webhook_url, created_at
	`, address, nullIfEmpty(webhookURL))

	var w domain.Wallet
	if err := row.Scan(&w.Address, &w.WebhookURL, &w.CreatedAt); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "upsert wallet")
	}
	return &w, nil
}

// FindWallet looks up a wallet by address. Returns (nil, nil) when absent.
func (s *Store) FindWallet(ctx context.Context, address string) (*domain.Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT address, webhook_url, created_at FROM wallets WHERE address = $1
	`, address)

	var w domain.Wallet
	if err := row.Scan(&w.Address, &w.WebhookURL, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindDatabase, err, "find wallet")
	}
	return &w, nil
}

// ListAllWallets returns every registered wallet. Ordering is unspecified;
// callers must tolerate the set changing between calls.
func (s *Store) ListAllWallets(ctx context.Context) ([]*domain.Wallet, error) {
	rows, err := s.pool.Query(ctx, `SELECT address, webhook_url, created_at FROM wallets`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "list wallets")
	}
	defer rows.Close()

	var out []*domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.Address, &w.WebhookURL, &w.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, err, "scan wallet")
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "iterate wallets")
	}
	return out, nil
}

// DeleteWallet removes a wallet by explicit admin action. Returns whether a
// row was deleted.
func (s *Store) DeleteWallet(ctx context.Context, address string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM wallets WHERE address = $1`, address)
	if err != nil {
		return false, apperr.Wrap(apperr.KindDatabase, err, "delete wallet")
	}
	return tag.RowsAffected() > 0, nil
}

func nullIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
