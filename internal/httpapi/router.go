// Package httpapi wires the stablecoin-pay HTTP surface: wallet
// registration, balance/transaction reads, webhook administration, and APY
// rate queries, behind a logrus access-log middleware.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zakaryaxali/stablecoin-pay/internal/apyengine"
	"github.com/zakaryaxali/stablecoin-pay/internal/config"
	"github.com/zakaryaxali/stablecoin-pay/internal/rpcadapter"
	"github.com/zakaryaxali/stablecoin-pay/internal/store"
	"github.com/zakaryaxali/stablecoin-pay/internal/webhook"
)

// Server bundles the dependencies handlers need to serve requests.
type Server struct {
	store    *store.Store
	rpc      *rpcadapter.Client
	webhooks *webhook.Engine
	apy      *apyengine.Engine
	cfg      *config.Config
}

// NewServer builds the Server used to construct the router.
func NewServer(st *store.Store, rpc *rpcadapter.Client, webhooks *webhook.Engine, apy *apyengine.Engine, cfg *config.Config) *Server {
	return &Server{store: st, rpc: rpc, webhooks: webhooks, apy: apy, cfg: cfg}
}

// NewRouter builds the gorilla/mux router for every route in the HTTP API.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLogMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/detailed", s.handleHealthDetailed).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/wallets", s.handleRegisterWallet).Methods(http.MethodPost)
	r.HandleFunc("/wallets/{address}", s.handleDeleteWallet).Methods(http.MethodDelete)
	r.HandleFunc("/wallets/{address}/balance", s.handleGetBalance).Methods(http.MethodGet)
	r.HandleFunc("/wallets/{address}/transactions", s.handleListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/wallets/{address}/webhook-events", s.handleListWebhookEvents).Methods(http.MethodGet)
	r.HandleFunc("/wallets/{address}/webhook/test", s.handleSendTestWebhook).Methods(http.MethodPost)

	r.HandleFunc("/apy/rates", s.handleGetLatestRates).Methods(http.MethodGet)
	r.HandleFunc("/apy/rates/best", s.handleGetBestRate).Methods(http.MethodGet)
	r.HandleFunc("/apy/history", s.handleGetApyHistory).Methods(http.MethodGet)
	if !s.cfg.IsProduction() {
		r.HandleFunc("/apy/refresh", s.handleForceApyRefresh).Methods(http.MethodPost)
	}

	return r
}

// accessLogMiddleware logs every request's method, path, status, and
// latency as structured fields, generalized from the teacher's per-line
// logrus.Infof access log to logrus.WithFields.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
