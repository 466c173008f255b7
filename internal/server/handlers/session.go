package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/application/settlement"
	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

type SessionHandler struct {
	settlementSvc settlement.ISettlementService
	sessionCfg    config.SessionConfig
	logger        zerolog.Logger
}

func NewSessionHandler(settlementSvc settlement.ISettlementService, sessionCfg config.SessionConfig, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		settlementSvc: settlementSvc,
		sessionCfg:    sessionCfg,
		logger:        logger,
	}
}

// IssueTicket registers a game session for the authenticated wallet so the
// provider's balance callbacks for it are accepted until the TTL expires.
func (h *SessionHandler) IssueTicket(c *gin.Context) {
	wallet := c.GetString("wallet")

	var req domain.SessionTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.SessionTicketResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	username, _, err := h.settlementSvc.IssueSessionTicket(c.Request.Context(), wallet, req)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, domain.SessionTicketResponse{
				Success: false,
				Error:   validationErr.Error(),
			})
			return
		}
		h.logger.Error().Err(err).Str("wallet", wallet).Msg("Failed to issue session ticket")
		c.JSON(http.StatusServiceUnavailable, domain.SessionTicketResponse{
			Success: false,
			Error:   "session registry temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, domain.SessionTicketResponse{
		Success:   true,
		Username:  username,
		ExpiresIn: int64(h.sessionCfg.TTL.Seconds()),
	})
}
