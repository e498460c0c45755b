// Package metrics registers the Prometheus collectors exposed at
// GET /metrics, grounded on core/system_health_logging.go's gauge/counter
// set but scoped to sync cycles, webhook delivery, and APY fetches instead
// of block height and peer counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stablecoin_pay_sync_cycles_total",
		Help: "Total number of wallet sync cycles completed.",
	})

	SyncNewTransactionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stablecoin_pay_sync_new_transactions_total",
		Help: "Total number of new transactions discovered across all sync cycles.",
	})

	WebhookDeliveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stablecoin_pay_webhook_delivered_total",
		Help: "Total number of webhook deliveries that reached a 2xx response.",
	})

	WebhookFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stablecoin_pay_webhook_failed_total",
		Help: "Total number of webhook events marked failed.",
	})

	ApyFetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stablecoin_pay_apy_fetch_errors_total",
		Help: "Total number of failed DeFiLlama pool fetches.",
	})
)

func init() {
	prometheus.MustRegister(
		SyncCyclesTotal,
		SyncNewTransactionsTotal,
		WebhookDeliveredTotal,
		WebhookFailedTotal,
		ApyFetchErrorsTotal,
	)
}
