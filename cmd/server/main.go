package main

import (
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finance-tracker/internal/api"
	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/market"
	"finance-tracker/internal/store"
)

func main() {
	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	log := logger.GetLogger()

	cfg, err := config.Load("configs/app.yaml")
	if err != nil {
		log.WithError(err).Fatal("config error")
	}
	if err := log.Configure(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.MaxAge); err != nil {
		log.WithError(err).Fatal("logger config error")
	}
	mainLog := log.WithComponent("main")

	st, err := store.Open(cfg.Store.Sqlite.Path)
	if err != nil {
		mainLog.WithError(err).Fatal("store error")
	}
	defer func() {
		if err := st.Close(); err != nil {
			mainLog.WithError(err).Warn("store close error")
		}
	}()

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		mainLog.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	authSvc, err := auth.NewService(st, auth.Config{
		Secret:   secret,
		TokenTTL: time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
	})
	if err != nil {
		mainLog.WithError(err).Fatal("auth error")
	}

	provider := market.BindProvider(cfg.Market.Provider, market.YahooConfig{
		SearchEndpoint: cfg.Market.SearchEndpoint,
		Timeout:        time.Duration(cfg.Market.SearchTimeoutMs) * time.Millisecond,
	}, cfg.Market.RequestsPerMinute, cfg.Market.Burst, log.WithComponent("market"))
	mktSvc := market.NewService(provider, market.Config{
		QuoteTimeout:   time.Duration(cfg.Market.QuoteTimeoutMs) * time.Millisecond,
		SearchTimeout:  time.Duration(cfg.Market.SearchTimeoutMs) * time.Millisecond,
		HistoryTimeout: time.Duration(cfg.Market.HistoryTimeoutMs) * time.Millisecond,
	}, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(
		server.WithHostPorts(addr),
		server.WithMaxRequestBodySize(cfg.Server.MaxBodyMB<<20),
	)
	api.RegisterRoutes(h, api.Deps{
		Store:       st,
		Auth:        authSvc,
		Market:      mktSvc,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	mainLog.WithFields(logger.Fields{
		"addr":            addr,
		"market_provider": cfg.Market.Provider,
		"log_level":       cfg.Log.Level,
	}).Info("server starting")
	h.Spin()
}
