// Package webhook delivers signed payment notifications to wallet
// subscriber URLs, at least once, with a durable pending/delivered/failed
// state machine backed by the store.
package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
	"github.com/zakaryaxali/stablecoin-pay/internal/metrics"
	"github.com/zakaryaxali/stablecoin-pay/internal/store"
)

// MaxAttempts bounds the delivery attempts per event. The inline loop stops
// after this many; retry_pending marks an event failed without sending once
// its attempt count has reached it.
const MaxAttempts = 3

// retryDelays are the inter-attempt backoff delays for the inline loop.
var retryDelays = []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}

// Stats summarizes delivery state across all events.
type Stats struct {
	Pending   int64
	Delivered int64
	Failed    int64
}

// Engine owns webhook construction, signing, and delivery.
type Engine struct {
	store  eventStore
	http   *resty.Client
	secret string
}

// New builds an Engine that signs payloads with secret.
func New(st *store.Store, secret string) *Engine {
	return &Engine{
		store:  st,
		http:   resty.New().SetTimeout(10 * time.Second),
		secret: secret,
	}
}

// NotifyPaymentReceived builds a payment.received event for tx, persists it,
// and attempts inline delivery if the wallet has a webhook URL configured.
// A wallet with no URL is a documented no-op, not an error.
func (e *Engine) NotifyPaymentReceived(ctx context.Context, tx *domain.Transaction, wallet *domain.Wallet) error {
	if !wallet.HasWebhook() {
		return nil
	}

	exists, err := e.store.EventExistsForSignature(ctx, tx.Signature)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	data := domain.PaymentReceivedData{
		Signature:     tx.Signature,
		WalletAddress: tx.WalletAddress,
		Amount:        tx.Amount.String(),
		Token:         tx.TokenMint,
		Counterparty:  tx.Counterparty,
		BlockTime:     tx.BlockTime.UTC().Format(time.RFC3339),
	}
	payload, err := buildPayload("payment.received", data)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "build webhook payload")
	}

	sig := tx.Signature
	event, err := e.store.CreateWebhookEvent(ctx, wallet.Address, &sig, "payment.received", payload)
	if err != nil {
		return err
	}

	e.deliverWithRetry(ctx, *wallet.WebhookURL, event)
	return nil
}

// SendTestWebhook performs a single, non-retried send of a test event. It
// always records an event row for auditability, marks it delivered or failed
// directly off that one attempt (never gated on an attempt count, since a
// fresh event always starts at Attempts=0), and propagates the outcome to
// the caller rather than always reporting success.
func (e *Engine) SendTestWebhook(ctx context.Context, wallet *domain.Wallet) error {
	if !wallet.HasWebhook() {
		return apperr.New(apperr.KindBadRequest, "wallet has no webhook url configured")
	}

	payload, err := buildPayload("test", domain.TestEventData{
		Message:       "this is a test webhook from stablecoin-pay",
		WalletAddress: wallet.Address,
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "build webhook payload")
	}

	event, err := e.store.CreateWebhookEvent(ctx, wallet.Address, nil, "test", payload)
	if err != nil {
		return err
	}

	ok, errMsg := e.send(ctx, *wallet.WebhookURL, event.Payload)
	if ok {
		if markErr := e.store.MarkDelivered(ctx, event.ID); markErr != nil {
			logrus.WithError(markErr).WithField("event_id", event.ID).Error("failed to mark webhook delivered")
		}
		metrics.WebhookDeliveredTotal.Inc()
		return nil
	}

	if markErr := e.store.MarkFailed(ctx, event.ID, errMsg); markErr != nil {
		logrus.WithError(markErr).WithField("event_id", event.ID).Error("failed to mark webhook failed")
	}
	metrics.WebhookFailedTotal.Inc()
	return apperr.New(apperr.KindWebhookDeliveryFailed, "test webhook delivery failed: "+errMsg)
}

// RetryPendingDefaultLimit is how many oldest pending events retry_pending
// scans per invocation.
const RetryPendingDefaultLimit = 100

// RetryPending makes at most one delivery attempt per pending event, oldest
// first, with no inline backoff between them: it is the crash-recovery and
// backstop path, driven by the sync engine's own cycle rather than by the
// original send.
func (e *Engine) RetryPending(ctx context.Context, limit int) error {
	events, err := e.store.FindPendingEvents(ctx, limit)
	if err != nil {
		return err
	}
	for _, event := range events {
		if event.Attempts >= MaxAttempts {
			if markErr := e.store.MarkFailed(ctx, event.ID, "Max retry attempts exceeded"); markErr != nil {
				logrus.WithError(markErr).WithField("event_id", event.ID).Error("failed to mark webhook failed")
			}
			metrics.WebhookFailedTotal.Inc()
			continue
		}

		wallet, err := e.store.FindWallet(ctx, event.WalletAddress)
		if err != nil {
			logrus.WithError(err).WithField("event_id", event.ID).Error("failed to look up wallet for pending event")
			continue
		}
		if wallet == nil || !wallet.HasWebhook() {
			if markErr := e.store.MarkFailed(ctx, event.ID, "wallet webhook url no longer configured"); markErr != nil {
				logrus.WithError(markErr).WithField("event_id", event.ID).Error("failed to mark webhook failed")
			}
			metrics.WebhookFailedTotal.Inc()
			continue
		}

		e.attemptOnce(ctx, *wallet.WebhookURL, event)
	}
	return nil
}

// GetStats returns a count of events by terminal and pending state.
func (e *Engine) GetStats(ctx context.Context) (Stats, error) {
	pending, err := e.store.CountByStatus(ctx, domain.WebhookPending)
	if err != nil {
		return Stats{}, err
	}
	delivered, err := e.store.CountByStatus(ctx, domain.WebhookDelivered)
	if err != nil {
		return Stats{}, err
	}
	failed, err := e.store.CountByStatus(ctx, domain.WebhookFailed)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Pending: pending, Delivered: delivered, Failed: failed}, nil
}

func buildPayload(event string, data interface{}) ([]byte, error) {
	envelope := domain.Payload{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	return json.Marshal(envelope)
}

// deliverWithRetry makes up to MaxAttempts delivery attempts with the
// retryDelays backoff schedule, stopping early on success. Each attempt is
// recorded against the event whether it succeeds or fails.
func (e *Engine) deliverWithRetry(ctx context.Context, url string, event *domain.WebhookEvent) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelays[attempt-1]):
			}
		}
		if e.attemptOnce(ctx, url, event) {
			return
		}
	}
}

// send performs a single signed POST and reports whether it succeeded,
// touching no store state itself.
func (e *Engine) send(ctx context.Context, url string, payload []byte) (bool, string) {
	sig := signatureHeader(e.secret, payload)

	resp, err := e.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Webhook-Signature", sig).
		SetBody(payload).
		Post(url)

	if err == nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return true, ""
	}
	if err != nil {
		return false, err.Error()
	}
	return false, "non-2xx response: " + resp.Status()
}

// attemptOnce performs a single signed POST and records the outcome against
// the event's attempt count. Returns true if the event reached a terminal
// delivered state. Used by the inline retry loop and retry_pending, both of
// which track attempts toward MaxAttempts.
func (e *Engine) attemptOnce(ctx context.Context, url string, event *domain.WebhookEvent) bool {
	ok, errMsg := e.send(ctx, url, event.Payload)

	if ok {
		if markErr := e.store.MarkDelivered(ctx, event.ID); markErr != nil {
			logrus.WithError(markErr).WithField("event_id", event.ID).Error("failed to mark webhook delivered")
		}
		metrics.WebhookDeliveredTotal.Inc()
		return true
	}

	if event.Attempts+1 >= MaxAttempts {
		if markErr := e.store.MarkFailed(ctx, event.ID, errMsg); markErr != nil {
			logrus.WithError(markErr).WithField("event_id", event.ID).Error("failed to mark webhook failed")
		}
		metrics.WebhookFailedTotal.Inc()
	} else if _, incErr := e.store.IncrementAttempt(ctx, event.ID, errMsg); incErr != nil {
		logrus.WithError(incErr).WithField("event_id", event.ID).Error("failed to record webhook attempt")
	}
	event.Attempts++
	return false
}
