// Package syncengine periodically pulls new stablecoin transfers for every
// watched wallet and feeds confirmed ones to the webhook engine.
package syncengine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
	"github.com/zakaryaxali/stablecoin-pay/internal/metrics"
	"github.com/zakaryaxali/stablecoin-pay/internal/rpcadapter"
	"github.com/zakaryaxali/stablecoin-pay/internal/store"
	"github.com/zakaryaxali/stablecoin-pay/internal/webhook"
)

// Interval is how often all wallets are re-synced.
const Interval = 30 * time.Second

// SignaturesPerWallet bounds how many recent signatures are fetched per
// wallet per cycle.
const SignaturesPerWallet = 20

// WalletReport summarizes one wallet's sync outcome.
type WalletReport struct {
	Address       string
	NewTxCount    int
	SkippedExists int
	Err           error
}

// Report summarizes one full sync_all_wallets cycle.
type Report struct {
	Wallets   []WalletReport
	StartedAt time.Time
	Duration  time.Duration
}

// Engine owns the periodic sync loop and its shutdown signal.
type Engine struct {
	store    *store.Store
	rpc      *rpcadapter.Client
	webhooks *webhook.Engine
	stopped  atomic.Bool
}

// New constructs an Engine.
func New(st *store.Store, rpc *rpcadapter.Client, webhooks *webhook.Engine) *Engine {
	return &Engine{store: st, rpc: rpc, webhooks: webhooks}
}

// Run blocks, syncing all wallets every Interval until Stop is called or ctx
// is canceled. The first cycle runs immediately.
func (e *Engine) Run(ctx context.Context) {
	for {
		if e.stopped.Load() || ctx.Err() != nil {
			return
		}

		report := e.SyncAllWallets(ctx)
		metrics.SyncCyclesTotal.Inc()
		logrus.WithFields(logrus.Fields{
			"wallets":  len(report.Wallets),
			"duration": report.Duration,
		}).Info("sync cycle complete")

		if err := e.webhooks.RetryPending(ctx, webhook.RetryPendingDefaultLimit); err != nil {
			logrus.WithError(err).Error("retry_pending cycle failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(Interval):
		}
	}
}

// Stop requests the loop exit. The flag is checked before each cycle and
// between wallets; it does not cut short the sleep between cycles.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// SyncAllWallets processes every registered wallet sequentially, collecting
// a per-wallet report. A single wallet's failure never aborts the cycle.
func (e *Engine) SyncAllWallets(ctx context.Context) Report {
	start := time.Now()
	wallets, err := e.store.ListAllWallets(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list wallets for sync cycle")
		return Report{StartedAt: start, Duration: time.Since(start)}
	}

	reports := make([]WalletReport, 0, len(wallets))
	for _, w := range wallets {
		if e.stopped.Load() || ctx.Err() != nil {
			break
		}
		reports = append(reports, e.syncWallet(ctx, w))
	}

	return Report{Wallets: reports, StartedAt: start, Duration: time.Since(start)}
}

// syncWallet fetches recent transfers for one wallet and, for each one not
// already recorded, inserts it and, when it is a receive, fires a webhook
// notification. Per-wallet
// RPC errors are captured in the report rather than propagated.
func (e *Engine) syncWallet(ctx context.Context, w *domain.Wallet) WalletReport {
	report := WalletReport{Address: w.Address}

	events, err := e.rpc.SyncWalletTransactions(ctx, w.Address, SignaturesPerWallet)
	if err != nil {
		report.Err = err
		logrus.WithError(err).WithField("wallet", w.Address).Warn("sync wallet failed")
		return report
	}

	for _, ev := range events {
		tx := &domain.Transaction{
			Signature:     ev.Signature,
			WalletAddress: ev.WalletAddress,
			TxType:        ev.TxType,
			Amount:        ev.Amount,
			TokenMint:     ev.TokenMint,
			Counterparty:  ev.Counterparty,
			Status:        domain.StatusConfirmed,
			BlockTime:     ev.BlockTime,
		}

		stored, inserted, err := e.store.InsertTransaction(ctx, tx)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"wallet":    w.Address,
				"signature": tx.Signature,
			}).Error("failed to insert transaction")
			continue
		}
		if !inserted {
			report.SkippedExists++
			continue
		}

		report.NewTxCount++
		metrics.SyncNewTransactionsTotal.Inc()
		if stored.TxType != domain.TxReceive {
			continue
		}
		if err := e.webhooks.NotifyPaymentReceived(ctx, stored, w); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"wallet":    w.Address,
				"signature": stored.Signature,
			}).Error("failed to notify webhook for new transaction")
		}
	}

	return report
}
