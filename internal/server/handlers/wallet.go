package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/application/settlement"
	"github.com/kachence/sols.bet-sub002/internal/domain"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

type WalletHandler struct {
	settlementSvc settlement.ISettlementService
	logger        zerolog.Logger
}

func NewWalletHandler(settlementSvc settlement.ISettlementService, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{
		settlementSvc: settlementSvc,
		logger:        logger,
	}
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	h.settle(c, h.settlementSvc.Deposit)
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.settle(c, h.settlementSvc.Withdraw)
}

func (h *WalletHandler) settle(c *gin.Context, apply func(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error)) {
	var req domain.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.SettleResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	result, err := apply(c.Request.Context(), req)
	if err != nil {
		status, message := settleErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("Settlement failed")
		}
		c.JSON(status, domain.SettleResponse{
			Success: false,
			Error:   message,
		})
		return
	}

	c.JSON(http.StatusOK, domain.SettleResponse{
		Success:    true,
		Balance:    &result.BalanceLamports,
		BalanceUsd: &result.BalanceUsd,
	})
}

func settleErrorStatus(err error) (int, string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusBadRequest, "insufficient balance"
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	default:
		return http.StatusServiceUnavailable, "settlement temporarily unavailable"
	}
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	wallet := c.GetString("wallet")

	limit := defaultTransactionLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	transactions, err := h.settlementSvc.ListTransactions(c.Request.Context(), wallet, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Str("wallet", wallet).Msg("Failed to list transactions")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "transaction history temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        len(transactions),
	})
}
