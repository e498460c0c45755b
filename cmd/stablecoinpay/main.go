package main

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/zakaryaxali/stablecoin-pay/internal/apyadapter"
	"github.com/zakaryaxali/stablecoin-pay/internal/apyengine"
	"github.com/zakaryaxali/stablecoin-pay/internal/config"
	"github.com/zakaryaxali/stablecoin-pay/internal/httpapi"
	"github.com/zakaryaxali/stablecoin-pay/internal/rpcadapter"
	"github.com/zakaryaxali/stablecoin-pay/internal/store"
	"github.com/zakaryaxali/stablecoin-pay/internal/supervisor"
	"github.com/zakaryaxali/stablecoin-pay/internal/syncengine"
	"github.com/zakaryaxali/stablecoin-pay/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer st.Close()

	if err := st.ApplySchema(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to apply schema")
	}

	rpcClient, err := rpcadapter.New(cfg.SolanaRPCURL, cfg.USDCMint)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build rpc client")
	}

	webhooks := webhook.New(st, cfg.WebhookSecret)
	apy := apyengine.New(st, apyadapter.New())
	sync := syncengine.New(st, rpcClient, webhooks)

	apiServer := httpapi.NewServer(st, rpcClient, webhooks, apy, cfg)
	router := httpapi.NewRouter(apiServer)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go sync.Run(ctx)
	go apy.Run(ctx)
	go func() {
		logrus.WithField("port", cfg.Port).Info("stablecoin-pay listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	sup := supervisor.New(httpServer, sync, apy)
	sup.Run(ctx, cancel)
}
