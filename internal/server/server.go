package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	authservice "github.com/kachence/sols.bet-sub002/internal/application/auth"
	"github.com/kachence/sols.bet-sub002/internal/application/settlement"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/cache"
	"github.com/kachence/sols.bet-sub002/internal/infrastructure/database"
	"github.com/kachence/sols.bet-sub002/internal/server/handlers"
	"github.com/kachence/sols.bet-sub002/internal/server/websocket"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

type Server struct {
	SettlementSvc settlement.ISettlementService
	AuthSvc       authservice.IAuthService
	Cfg           *config.Config
	Logger        zerolog.Logger
	Router        *gin.Engine
	httpServer    *http.Server
	Hub           *websocket.BalanceHub
	DB            *database.DBManager
	Redis         cache.RedisClient
}

func New(
	cfg *config.Config,
	settlementSvc settlement.ISettlementService,
	authSvc authservice.IAuthService,
	logger zerolog.Logger,
	hub *websocket.BalanceHub,
	db *database.DBManager,
	redis cache.RedisClient,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	return &Server{
		Cfg:           cfg,
		SettlementSvc: settlementSvc,
		AuthSvc:       authSvc,
		Logger:        logger,
		Router:        router,
		Hub:           hub,
		DB:            db,
		Redis:         redis,
	}
}

func (s *Server) SetupRouter() {
	handler := handlers.New(
		s.SettlementSvc,
		s.AuthSvc,
		s.Logger,
		s.Cfg,
		s.Hub,
		s.DB,
		s.Redis,
	)
	handler.SetupHandlers(s.Router)
}

func (s *Server) Start() {
	s.SetupRouter()

	go s.Hub.Run()

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	s.Logger.Info().Msg("Server exited gracefully")
}
