// Package apyengine periodically samples lending-platform yields and keeps
// a 7-day rolling history in the store.
package apyengine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/zakaryaxali/stablecoin-pay/internal/apyadapter"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
	"github.com/zakaryaxali/stablecoin-pay/internal/metrics"
	"github.com/zakaryaxali/stablecoin-pay/internal/store"
)

// Interval between fetch cycles.
const Interval = 5 * time.Minute

// RetentionWindow is how long samples are kept before CleanupOldRates prunes
// them.
const RetentionWindow = 7 * 24 * time.Hour

const trackedChain = "solana"
const trackedToken = "USDC"

// Engine owns the periodic APY sampling loop.
type Engine struct {
	store   *store.Store
	adapter *apyadapter.Client
	stopped atomic.Bool
}

// New constructs an Engine.
func New(st *store.Store, adapter *apyadapter.Client) *Engine {
	return &Engine{store: st, adapter: adapter}
}

// Run fetches immediately, then again on every tick. time.NewTicker fires its
// first tick only after Interval has elapsed, so the second fetch happens one
// Interval after startup. Every ticked fetch is followed by a prune of
// samples older than RetentionWindow; the startup fetch is not.
func (e *Engine) Run(ctx context.Context) {
	e.fetchAndStoreRates(ctx)

	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for {
		if e.stopped.Load() || ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.fetchAndStoreRates(ctx)
			if removed, err := e.store.CleanupOldRates(ctx, time.Now().Add(-RetentionWindow)); err != nil {
				logrus.WithError(err).Error("failed to cleanup old apy rates")
			} else if removed > 0 {
				logrus.WithField("removed", removed).Info("pruned old apy rate samples")
			}
		}
	}
}

// Stop requests the loop exit at the next tick boundary.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

func (e *Engine) fetchAndStoreRates(ctx context.Context) {
	rates, err := e.adapter.FetchRates(ctx)
	if err != nil {
		metrics.ApyFetchErrorsTotal.Inc()
		logrus.WithError(err).Error("failed to fetch apy rates")
		return
	}

	fetchedAt := time.Now().UTC()
	for _, r := range rates {
		var apyBase, apyReward *decimal.Decimal
		if r.ApyBase != nil {
			v := decimal.NewFromFloat(*r.ApyBase)
			apyBase = &v
		}
		if r.ApyReward != nil {
			v := decimal.NewFromFloat(*r.ApyReward)
			apyReward = &v
		}
		tvl := decimal.NewFromFloat(r.TvlUSD)
		poolID := r.PoolID

		_, err := e.store.InsertApyRate(ctx, &domain.ApyRate{
			Platform:  r.Platform,
			Chain:     r.Chain,
			Token:     r.Token,
			ApyTotal:  decimal.NewFromFloat(r.ApyTotal),
			ApyBase:   apyBase,
			ApyReward: apyReward,
			TvlUSD:    &tvl,
			PoolID:    &poolID,
			Source:    "defillama",
			FetchedAt: fetchedAt,
		})
		if err != nil {
			logrus.WithError(err).WithField("platform", r.Platform).Error("failed to store apy rate")
		}
	}
}

// ForceFetch runs one fetch-and-store cycle immediately, bypassing the
// ticker. Used by the dev-only /apy/refresh endpoint.
func (e *Engine) ForceFetch(ctx context.Context) {
	e.fetchAndStoreRates(ctx)
}

// GetLatestRates passes through to the store for the tracked chain/token.
func (e *Engine) GetLatestRates(ctx context.Context) ([]*domain.ApyRate, error) {
	return e.store.GetLatestRates(ctx, trackedChain, trackedToken)
}

// GetBestRate passes through to the store for the tracked chain/token.
func (e *Engine) GetBestRate(ctx context.Context) (*domain.ApyRate, error) {
	return e.store.GetBestRate(ctx, trackedChain, trackedToken)
}

// GetHistory passes through to the store.
func (e *Engine) GetHistory(ctx context.Context, platform string, since time.Time, limit int) ([]*domain.ApyRate, error) {
	return e.store.GetHistory(ctx, platform, since, limit)
}
