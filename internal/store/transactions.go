package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// InsertTransaction is idempotent on signature. When the signature already
// exists, it returns (nil, false, nil): no new row, not an error, so the
// caller (the sync engine) knows to skip webhook emission.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, bool, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO transactions (signature, wallet_address, tx_type, amount, token_mint, counterparty, status, block_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (signature) DO NOTHING
		RETURNING signature, wallet_address, tx_type, amount, token_mint, counterparty, status, block_time, created_at
	`, tx.Signature, tx.WalletAddress, string(tx.TxType), tx.Amount, tx.TokenMint, tx.Counterparty, string(tx.Status), tx.BlockTime)

	var stored domain.Transaction
	var txType, status string
	if err := row.Scan(&stored.Signature, &stored.WalletAddress, &txType, &stored.Amount,
		&stored.TokenMint, &stored.Counterparty, &status, &stored.BlockTime, &stored.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, apperr.Wrap(apperr.KindDatabase, err, "insert transaction")
	}
	stored.TxType = domain.TransactionType(txType)
	stored.Status = domain.TransactionStatus(status)
	return &stored, true, nil
}

// TransactionExists is a fast existence probe on signature.
func (s *Store) TransactionExists(ctx context.Context, signature string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE signature = $1)`, signature).Scan(&exists)
	if err != nil {
		return false, apperr.Wrap(apperr.KindDatabase, err, "check transaction exists")
	}
	return exists, nil
}

// FindTransactionsByWallet returns transactions for a wallet, newest block
// time first, honoring limit/offset.
func (s *Store) FindTransactionsByWallet(ctx context.Context, address string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT signature, wallet_address, tx_type, amount, token_mint, counterparty, status, block_time, created_at
		FROM transactions
		WHERE wallet_address = $1
		ORDER BY block_time DESC
		LIMIT $2 OFFSET $3
	`, address, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "list transactions")
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var txType, status string
		if err := rows.Scan(&t.Signature, &t.WalletAddress, &txType, &t.Amount,
			&t.TokenMint, &t.Counterparty, &status, &t.BlockTime, &t.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, err, "scan transaction")
		}
		t.TxType = domain.TransactionType(txType)
		t.Status = domain.TransactionStatus(status)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "iterate transactions")
	}
	return out, nil
}
