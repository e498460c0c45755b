package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/zakaryaxali/stablecoin-pay/internal/apperr"
	"github.com/zakaryaxali/stablecoin-pay/internal/domain"
	"github.com/zakaryaxali/stablecoin-pay/internal/rpcadapter"
)

const (
	defaultTxLimit      = 50
	maxTxLimit          = 100
	inlineSyncSigLimit  = 20
	defaultEventLimit   = 50
	defaultHistoryHours = 24
	maxHistoryLimit     = 1000
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := s.store.Ping(ctx) == nil

	rpcHealthy := true
	if _, err := s.rpc.GetSlot(ctx); err != nil {
		rpcHealthy = false
	}

	stats, err := s.webhooks.GetStats(ctx)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}

	status := "healthy"
	if !dbHealthy || !rpcHealthy {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"components": map[string]interface{}{
			"database": dbHealthy,
			"rpc":      rpcHealthy,
		},
		"webhooks": map[string]int64{
			"pending":   stats.Pending,
			"delivered": stats.Delivered,
			"failed":    stats.Failed,
		},
	})
}

type registerWalletRequest struct {
	Address    string  `json:"address"`
	WebhookURL *string `json:"webhook_url"`
}

func (s *Server) handleRegisterWallet(w http.ResponseWriter, r *http.Request) {
	var req registerWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteError(w, apperr.New(apperr.KindBadRequest, "invalid request body"))
		return
	}

	if _, err := validateAddress(req.Address); err != nil {
		apperr.WriteError(w, err)
		return
	}

	wallet, err := s.store.UpsertWallet(r.Context(), req.Address, req.WebhookURL)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	deleted, err := s.store.DeleteWallet(r.Context(), address)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	if !deleted {
		apperr.WriteError(w, apperr.New(apperr.KindNotFound, "wallet not registered"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	balance, err := s.rpc.GetTokenBalance(r.Context(), address)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"balance": balance.String(),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := mux.Vars(r)["address"]

	wallet, err := s.store.FindWallet(ctx, address)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	if wallet == nil {
		apperr.WriteError(w, apperr.New(apperr.KindNotFound, "wallet not registered"))
		return
	}

	events, err := s.rpc.SyncWalletTransactions(ctx, address, inlineSyncSigLimit)
	if err != nil {
		apperr.WriteError(w, err)
		return
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
		stored, inserted, err := s.store.InsertTransaction(ctx, tx)
		if err != nil || !inserted || stored.TxType != domain.TxReceive {
			continue
		}
		_ = s.webhooks.NotifyPaymentReceived(ctx, stored, wallet)
	}

	limit, offset := parseLimitOffset(r, defaultTxLimit, maxTxLimit)
	txs, err := s.store.FindTransactionsByWallet(ctx, address, limit, offset)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

func (s *Server) handleListWebhookEvents(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	limit, offset := parseLimitOffset(r, defaultEventLimit, maxTxLimit)

	events, err := s.store.FindWebhookEventsByWallet(r.Context(), address, limit, offset)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (s *Server) handleSendTestWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := mux.Vars(r)["address"]

	wallet, err := s.store.FindWallet(ctx, address)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	if wallet == nil {
		apperr.WriteError(w, apperr.New(apperr.KindNotFound, "wallet not registered"))
		return
	}

	if err := s.webhooks.SendTestWebhook(ctx, wallet); err != nil {
		apperr.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleGetLatestRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.apy.GetLatestRates(r.Context())
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rates": rates})
}

func (s *Server) handleGetBestRate(w http.ResponseWriter, r *http.Request) {
	rate, err := s.apy.GetBestRate(r.Context())
	if err != nil {
		apperr.WriteError(w, err)
		return
	}
	if rate == nil {
		apperr.WriteError(w, apperr.New(apperr.KindNotFound, "no apy rates available"))
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) handleGetApyHistory(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	if platform == "" {
		apperr.WriteError(w, apperr.New(apperr.KindBadRequest, "platform is required"))
		return
	}

	hours := defaultHistoryHours
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			apperr.WriteError(w, apperr.New(apperr.KindBadRequest, "hours must be a positive integer"))
			return
		}
		hours = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	history, err := s.apy.GetHistory(r.Context(), platform, since, maxHistoryLimit)
	if err != nil {
		apperr.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

func (s *Server) handleForceApyRefresh(w http.ResponseWriter, r *http.Request) {
	s.apy.ForceFetch(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
}

func parseLimitOffset(r *http.Request, def, max int) (int, int) {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > max {
		limit = max
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}

func validateAddress(address string) (string, error) {
	if address == "" {
		return "", apperr.New(apperr.KindBadRequest, "address is required")
	}
	if _, err := rpcadapter.ValidateAddress(address); err != nil {
		return "", err
	}
	return address, nil
}
