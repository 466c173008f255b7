package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{TTL: time.Hour}
}

type mockSettlementService struct {
	mock.Mock
}

func (m *mockSettlementService) Deposit(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MutationResult), args.Error(1)
}

func (m *mockSettlementService) Withdraw(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MutationResult), args.Error(1)
}

func (m *mockSettlementService) ProviderBalance(ctx context.Context, req domain.ProviderBalanceRequest, remoteIP string) (*domain.ProviderBalanceResponse, int) {
	args := m.Called(ctx, req, remoteIP)
	return args.Get(0).(*domain.ProviderBalanceResponse), args.Int(1)
}

func (m *mockSettlementService) IssueSessionTicket(ctx context.Context, wallet string, req domain.SessionTicketRequest) (string, *domain.SessionRecord, error) {
	args := m.Called(ctx, wallet, req)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.SessionRecord), args.Error(2)
}

func (m *mockSettlementService) ListTransactions(ctx context.Context, wallet string, limit, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, wallet, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDepositHandlerReturnsBalance(t *testing.T) {
	svc := new(mockSettlementService)
	svc.On("Deposit", mock.Anything, mock.MatchedBy(func(r domain.SettleRequest) bool {
		return r.TransactionID == "tx-1" && r.AmountLamports == 1_000_000_000
	})).Return(&domain.MutationResult{
		Username:        "9WzDXwBbmkg8ZTbN",
		BalanceLamports: 1_500_000_000,
		BalanceUsd:      150.0,
	}, nil)

	router := newTestRouter()
	handler := NewWalletHandler(svc, zerolog.Nop())
	router.POST("/v1/wallet/deposit", handler.Deposit)

	w := postJSON(t, router, "/v1/wallet/deposit", domain.SettleRequest{
		WalletAddress:  "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		AmountLamports: 1_000_000_000,
		TransactionID:  "tx-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp domain.SettleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Balance)
	assert.Equal(t, int64(1_500_000_000), *resp.Balance)
	require.NotNil(t, resp.BalanceUsd)
	assert.InDelta(t, 150.0, *resp.BalanceUsd, 0.0001)
}

func TestDepositHandlerRejectsMalformedBody(t *testing.T) {
	svc := new(mockSettlementService)

	router := newTestRouter()
	handler := NewWalletHandler(svc, zerolog.Nop())
	router.POST("/v1/wallet/deposit", handler.Deposit)

	w := postJSON(t, router, "/v1/wallet/deposit", gin.H{"walletAddress": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp domain.SettleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	svc.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything)
}

func TestWithdrawHandlerMapsInsufficientBalance(t *testing.T) {
	svc := new(mockSettlementService)
	svc.On("Withdraw", mock.Anything, mock.Anything).Return(nil, domain.ErrInsufficientBalance)

	router := newTestRouter()
	handler := NewWalletHandler(svc, zerolog.Nop())
	router.POST("/v1/wallet/withdraw", handler.Withdraw)

	w := postJSON(t, router, "/v1/wallet/withdraw", domain.SettleRequest{
		WalletAddress:  "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		AmountLamports: 5_000_000_000,
		TransactionID:  "tx-2",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp domain.SettleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "insufficient balance", resp.Error)
}

func TestWithdrawHandlerMapsUnknownAccount(t *testing.T) {
	svc := new(mockSettlementService)
	svc.On("Withdraw", mock.Anything, mock.Anything).Return(nil, domain.ErrAccountNotFound)

	router := newTestRouter()
	handler := NewWalletHandler(svc, zerolog.Nop())
	router.POST("/v1/wallet/withdraw", handler.Withdraw)

	w := postJSON(t, router, "/v1/wallet/withdraw", domain.SettleRequest{
		WalletAddress:  "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		AmountLamports: 5_000_000_000,
		TransactionID:  "tx-3",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProviderBalanceHandlerPreservesWireSchema(t *testing.T) {
	svc := new(mockSettlementService)
	svc.On("ProviderBalance", mock.Anything, mock.MatchedBy(func(r domain.ProviderBalanceRequest) bool {
		return r.Command == "getbalance" && r.Login == "wallet-address"
	}), mock.Anything).Return(&domain.ProviderBalanceResponse{
		Status:    domain.ProviderStatusOK,
		Balance:   "150.00",
		Timestamp: "2025-06-01 12:00:00",
	}, http.StatusOK)

	router := newTestRouter()
	handler := NewProviderHandler(svc, zerolog.Nop())
	router.POST("/v1/provider/balance", handler.Balance)

	w := postJSON(t, router, "/v1/provider/balance", gin.H{
		"command":   "getbalance",
		"userid":    "user-1",
		"login":     "wallet-address",
		"timestamp": "1700000000",
		"signature": "abc",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "status")
	assert.Contains(t, raw, "balance")
	assert.Contains(t, raw, "timestamp")
	assert.NotContains(t, raw, "errormsg")

	// Balance must cross the wire as a string, never a number.
	var balance string
	require.NoError(t, json.Unmarshal(raw["balance"], &balance))
	assert.Equal(t, "150.00", balance)
}

func TestProviderBalanceHandlerRejectsMalformedBody(t *testing.T) {
	svc := new(mockSettlementService)

	router := newTestRouter()
	handler := NewProviderHandler(svc, zerolog.Nop())
	router.POST("/v1/provider/balance", handler.Balance)

	w := postJSON(t, router, "/v1/provider/balance", gin.H{"command": "getbalance"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp domain.ProviderBalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ProviderStatusError, resp.Status)
	assert.NotEmpty(t, resp.Balance)
	svc.AssertNotCalled(t, "ProviderBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionTicketHandler(t *testing.T) {
	svc := new(mockSettlementService)
	svc.On("IssueSessionTicket", mock.Anything, "wallet-address", mock.MatchedBy(func(r domain.SessionTicketRequest) bool {
		return r.GameID == "game-1" && r.ProviderToken == "token"
	})).Return("wallet-address", &domain.SessionRecord{Wallet: "wallet-address"}, nil)

	router := newTestRouter()
	handler := NewSessionHandler(svc, testSessionConfig(), zerolog.Nop())
	router.POST("/v1/session/ticket", func(c *gin.Context) {
		c.Set("wallet", "wallet-address")
		handler.IssueTicket(c)
	})

	w := postJSON(t, router, "/v1/session/ticket", domain.SessionTicketRequest{
		GameID:        "game-1",
		ProviderToken: "token",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp domain.SessionTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "wallet-address", resp.Username)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestListTransactionsHandlerCapsLimit(t *testing.T) {
	svc := new(mockSettlementService)
	svc.On("ListTransactions", mock.Anything, "wallet-address", maxTransactionLimit, 0).
		Return([]domain.Transaction{}, nil)

	router := newTestRouter()
	handler := NewWalletHandler(svc, zerolog.Nop())
	router.GET("/v1/wallet/transactions", func(c *gin.Context) {
		c.Set("wallet", "wallet-address")
		handler.ListTransactions(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/wallet/transactions?limit=9999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
