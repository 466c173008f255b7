package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/application/settlement"
	"github.com/kachence/sols.bet-sub002/internal/domain"
)

// ProviderHandler serves the game provider's balance callback. The route is
// open at the HTTP layer; every request is authenticated downstream by
// signature, timestamp and source IP.
type ProviderHandler struct {
	settlementSvc settlement.ISettlementService
	logger        zerolog.Logger
}

func NewProviderHandler(settlementSvc settlement.ISettlementService, logger zerolog.Logger) *ProviderHandler {
	return &ProviderHandler{
		settlementSvc: settlementSvc,
		logger:        logger,
	}
}

func (h *ProviderHandler) Balance(c *gin.Context) {
	var req domain.ProviderBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ProviderBalanceResponse{
			Status:    domain.ProviderStatusError,
			Balance:   "0.00",
			ErrorMsg:  "malformed request",
			Timestamp: time.Now().UTC().Format(domain.ProviderTimestampLayout),
		})
		return
	}

	response, status := h.settlementSvc.ProviderBalance(c.Request.Context(), req, c.ClientIP())
	c.JSON(status, response)
}
