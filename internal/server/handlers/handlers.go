package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authservice "github.com/kachence/sols.bet-sub002/internal/application/auth"
	"github.com/kachence/sols.bet-sub002/internal/application/settlement"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/database"
	"github.com/kachence/sols.bet-sub002/internal/server/middleware"
	"github.com/kachence/sols.bet-sub002/internal/server/websocket"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

type Handlers struct {
	SettlementSvc settlement.ISettlementService
	AuthSvc       authservice.IAuthService
	Logger        zerolog.Logger
	Config        *config.Config
	Hub           *websocket.BalanceHub
	DB            *database.DBManager
	Redis         cache.RedisClient
}

func New(
	settlementSvc settlement.ISettlementService,
	authSvc authservice.IAuthService,
	logger zerolog.Logger,
	config *config.Config,
	hub *websocket.BalanceHub,
	db *database.DBManager,
	redis cache.RedisClient,
) *Handlers {
	return &Handlers{
		SettlementSvc: settlementSvc,
		AuthSvc:       authSvc,
		Logger:        logger,
		Config:        config,
		Hub:           hub,
		DB:            db,
		Redis:         redis,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	mw := middleware.NewMiddleware(h.AuthSvc, h.Logger)
	mw.SetupMiddleware(router)

	walletHandler := NewWalletHandler(h.SettlementSvc, h.Logger)
	providerHandler := NewProviderHandler(h.SettlementSvc, h.Logger)
	sessionHandler := NewSessionHandler(h.SettlementSvc, h.Config.Session, h.Logger)
	wsHandler := NewWebSocketHandler(h.Hub, h.Logger)
	healthHandler := NewHealthHandler(h.DB, h.Redis)

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	router.GET("/ws/balance", mw.AuthMiddleware(), wsHandler.HandleConnection)

	v1 := router.Group("/v1")
	{
		wallet := v1.Group("/wallet", mw.AuthMiddleware())
		{
			wallet.POST("/deposit", walletHandler.Deposit)
			wallet.POST("/withdraw", walletHandler.Withdraw)
			wallet.GET("/transactions", walletHandler.ListTransactions)
		}

		session := v1.Group("/session", mw.AuthMiddleware())
		{
			session.POST("/ticket", sessionHandler.IssueTicket)
		}

		// Authenticated by HMAC signature, not JWT.
		provider := v1.Group("/provider")
		{
			provider.POST("/balance", providerHandler.Balance)
		}
	}
}
