package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
)

// InsertApyRate appends a new sample. Rates are never updated.
func (s *Store) InsertApyRate(ctx context.Context, rate *domain.ApyRate) (*domain.ApyRate, error) {
	id := uuid.New()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO apy_rates (id, platform, chain, token, apy_total, apy_base, apy_reward, tvl_usd, pool_id, source, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, platform, chain, token, apy_total, apy_base, apy_reward, tvl_usd, pool_id, source, fetched_at, created_at
	`, id, rate.Platform, rate.Chain, rate.Token, rate.ApyTotal, rate.ApyBase, rate.ApyReward, rate.TvlUSD, rate.PoolID, rate.Source, rate.FetchedAt)

	var stored domain.ApyRate
	if err := row.Scan(&stored.ID, &stored.Platform, &stored.Chain, &stored.Token, &stored.ApyTotal,
		&stored.ApyBase, &stored.ApyReward, &stored.TvlUSD, &stored.PoolID, &stored.Source,
		&stored.FetchedAt, &stored.CreatedAt); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "insert apy rate")
	}
	return &stored, nil
}

// GetLatestRates returns the freshest sample per platform for a given
// chain/token, via DISTINCT ON (platform) ORDER BY platform, fetched_at DESC.
func (s *Store) GetLatestRates(ctx context.Context, chain, token string) ([]*domain.ApyRate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (platform) id, platform, chain, token, apy_total, apy_base, apy_reward, tvl_usd, pool_id, source, fetched_at, created_at
		FROM apy_rates
		WHERE chain = $1 AND token = $2
		ORDER BY platform, fetched_at DESC
	`, chain, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "get latest rates")
	}
	defer rows.Close()

	var out []*domain.ApyRate
	for rows.Next() {
		var r domain.ApyRate
		if err := rows.Scan(&r.ID, &r.Platform, &r.Chain, &r.Token, &r.ApyTotal, &r.ApyBase,
			&r.ApyReward, &r.TvlUSD, &r.PoolID, &r.Source, &r.FetchedAt, &r.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, err, "scan apy rate")
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "iterate apy rates")
	}
	return out, nil
}

// GetHistory returns up to limit samples for platform newer than since,
// newest first.
func (s *Store) GetHistory(ctx context.Context, platform string, since time.Time, limit int) ([]*domain.ApyRate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, platform, chain, token, apy_total, apy_base, apy_reward, tvl_usd, pool_id, source, fetched_at, created_at
		FROM apy_rates
		WHERE platform = $1 AND fetched_at >= $2
		ORDER BY fetched_at DESC
		LIMIT $3
	`, platform, since, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "get apy history")
	}
	defer rows.Close()

	var out []*domain.ApyRate
	for rows.Next() {
		var r domain.ApyRate
		if err := rows.Scan(&r.ID, &r.Platform, &r.Chain, &r.Token, &r.ApyTotal, &r.ApyBase,
			&r.ApyReward, &r.TvlUSD, &r.PoolID, &r.Source, &r.FetchedAt, &r.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindDatabase, err, "scan apy rate")
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, err, "iterate apy history")
	}
	return out, nil
}

// GetBestRate returns the latest-per-platform sample with the highest
// apy_total, ties broken by platform name ascending for determinism.
func (s *Store) GetBestRate(ctx context.Context, chain, token string) (*domain.ApyRate, error) {
	latest, err := s.GetLatestRates(ctx, chain, token)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return nil, nil
	}
	best := latest[0]
	for _, r := range latest[1:] {
		switch {
		case r.ApyTotal.GreaterThan(best.ApyTotal):
			best = r
		case r.ApyTotal.Equal(best.ApyTotal) && r.Platform < best.Platform:
			best = r
		}
	}
	return best, nil
}

// CleanupOldRates deletes samples older than before and returns the count
// removed.
func (s *Store) CleanupOldRates(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM apy_rates WHERE created_at < $1`, before)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindDatabase, err, "cleanup old rates")
	}
	return tag.RowsAffected(), nil
}
