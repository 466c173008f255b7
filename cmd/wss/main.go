package main

import (
	authservice "github.com/kachence/sols.bet-sub002/internal/application/auth"
	"github.com/kachence/sols.bet-sub002/internal/application/providerauth"
	"github.com/kachence/sols.bet-sub002/internal/application/rateoracle"
	"github.com/kachence/sols.bet-sub002/internal/application/settlement"
	"github.com/kachence/sols.bet-sub002/internal/cache/balancecache"
	"github.com/kachence/sols.bet-sub002/internal/cache/sessionregistry"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/clients"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/database"
	"github.com/kachence/sols.bet-sub002/internal/repositories/ledgerrepo"
	"github.com/kachence/sols.bet-sub002/internal/server"
	"github.com/kachence/sols.bet-sub002/internal/server/websocket"
	"github.com/kachence/sols.bet-sub002/pkg/config"
	"github.com/kachence/sols.bet-sub002/pkg/logger"
)

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	redis, err := cache.New(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redis.Close()

	ledgerRepo := ledgerrepo.New(db, logger)
	balanceCache := balancecache.New(redis, cfg.Cache.BalanceTTL, logger)
	sessions := sessionregistry.New(redis, logger)

	exchangeClient, err := clients.NewExchangeAPIClient(&cfg.Oracle, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build exchange rate client")
	}
	oracle := rateoracle.New(exchangeClient, redis, cfg.Oracle, logger)

	authenticator := providerauth.New(cfg.Provider)
	authSvc := authservice.NewAuthService(cfg, logger)

	hub := websocket.NewBalanceHub(logger)

	settlementSvc := settlement.New(
		ledgerRepo,
		balanceCache,
		sessions,
		oracle,
		authenticator,
		hub,
		cfg.Session,
		cfg.Cache,
		logger,
	)

	srv := server.New(cfg, settlementSvc, authSvc, logger, hub, db, redis)
	srv.Start()
}
