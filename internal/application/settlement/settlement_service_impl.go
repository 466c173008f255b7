package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kachence/sols.bet-sub002/internal/application/providerauth"
	"github.com/kachence/sols.bet-sub002/internal/application/rateoracle"
	"github.com/kachence/sols.bet-sub002/internal/cache/balancecache"
	"github.com/kachence/sols.bet-sub002/internal/cache/sessionregistry"
	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/internal/repositories/ledgerrepo"
	"github.com/kachence/sols.bet-sub002/pkg/config"
	"github.com/kachence/sols.bet-sub002/pkg/currency"
)

type settlementService struct {
	ledgerRepo    ledgerrepo.ILedgerRepository
	balanceCache  balancecache.IBalanceCache
	sessions      sessionregistry.ISessionRegistry
	oracle        rateoracle.IRateOracle
	authenticator *providerauth.Authenticator
	notifier      BalanceNotifier
	sessionTTL    time.Duration
	freshFor      time.Duration
	currencyUtils *currency.CurrencyUtils
	logger        zerolog.Logger
}

func New(
	ledgerRepo ledgerrepo.ILedgerRepository,
	balanceCache balancecache.IBalanceCache,
	sessions sessionregistry.ISessionRegistry,
	oracle rateoracle.IRateOracle,
	authenticator *providerauth.Authenticator,
	notifier BalanceNotifier,
	sessionCfg config.SessionConfig,
	cacheCfg config.CacheConfig,
	logger zerolog.Logger,
) ISettlementService {
	freshFor := cacheCfg.FreshFor
	if freshFor <= 0 {
		freshFor = time.Minute
	}
	return &settlementService{
		ledgerRepo:    ledgerRepo,
		balanceCache:  balanceCache,
		sessions:      sessions,
		oracle:        oracle,
		authenticator: authenticator,
		notifier:      notifier,
		sessionTTL:    sessionCfg.TTL,
		freshFor:      freshFor,
		currencyUtils: currency.NewCurrencyUtils(),
		logger:        logger,
	}
}

func (s *settlementService) Deposit(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error) {
	return s.settle(ctx, req, domain.OpDeposit)
}

func (s *settlementService) Withdraw(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error) {
	return s.settle(ctx, req, domain.OpWithdraw)
}

func (s *settlementService) settle(ctx context.Context, req domain.SettleRequest, op domain.OperationType) (*domain.MutationResult, error) {
	if err := validateSettleRequest(req); err != nil {
		return nil, err
	}

	username := domain.UsernameFromWallet(req.WalletAddress)
	rate := s.oracle.CurrentRate(ctx)

	// Fast duplicate path: a replayed transaction ID is answered from the
	// committed row with no side effects.
	if committed, err := s.ledgerRepo.CheckDuplicate(ctx, req.TransactionID); err != nil {
		return nil, domain.NewDependencyError("ledger", err)
	} else if committed != nil {
		s.logger.Info().
			Str("transaction_id", req.TransactionID).
			Str("username", username).
			Str("operation", string(op)).
			Msg("Duplicate transaction replayed")
		return s.mutationResult(username, committed.BalanceAfter, rate, true), nil
	}

	if op == domain.OpWithdraw {
		// Early exit only; ApplyDelta re-validates sufficiency under the
		// account lock.
		account, err := s.ledgerRepo.GetAccount(ctx, username)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, err
			}
			return nil, domain.NewDependencyError("ledger", err)
		}
		if account.BalanceLamports < req.AmountLamports {
			return nil, domain.ErrInsufficientBalance
		}
	}

	usdCents := s.currencyUtils.LamportsToUSDCents(req.AmountLamports, rate)
	metadata, err := json.Marshal(domain.TxMetadata{
		VaultAddress:    req.VaultAddress,
		TransactionHash: req.TransactionHash,
		ExchangeRate:    fmt.Sprintf("%.6f", rate),
	})
	if err != nil {
		metadata = json.RawMessage("{}")
	}

	result, err := s.ledgerRepo.ApplyDelta(ctx, ledgerrepo.ApplyDeltaParams{
		Username:       username,
		WalletAddress:  req.WalletAddress,
		VaultAddress:   req.VaultAddress,
		Operation:      op,
		TransactionID:  req.TransactionID,
		AmountLamports: req.AmountLamports,
		AmountUsdCents: &usdCents,
		Metadata:       metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) || errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, domain.NewDependencyError("ledger", err)
	}

	if !result.Replayed {
		s.refreshCache(ctx, username, result.BalanceAfter, rate)
	}

	s.logger.Info().
		Str("transaction_id", req.TransactionID).
		Str("username", username).
		Str("operation", string(op)).
		Int64("amount_lamports", req.AmountLamports).
		Str("amount_usd", s.currencyUtils.FormatUSD(usdCents)).
		Int64("balance_after", result.BalanceAfter).
		Bool("replayed", result.Replayed).
		Msg("Settlement applied")

	return s.mutationResult(username, result.BalanceAfter, rate, result.Replayed), nil
}

func (s *settlementService) mutationResult(username string, balance int64, rate float64, replayed bool) *domain.MutationResult {
	return &domain.MutationResult{
		Username:        username,
		BalanceLamports: balance,
		BalanceUsd:      s.currencyUtils.LamportsToUSD(balance, rate),
		Replayed:        replayed,
	}
}

// refreshCache mirrors a committed balance into the cache and notifies
// listeners. Best effort: failures are logged, a failed write is
// invalidated so no stale value survives it.
func (s *settlementService) refreshCache(ctx context.Context, username string, balance int64, rate float64) {
	if err := s.balanceCache.Set(ctx, username, balance); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("Failed to refresh balance cache, invalidating")
		if err := s.balanceCache.Invalidate(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("Failed to invalidate balance cache")
		}
		return
	}

	if s.notifier != nil {
		entry, err := s.balanceCache.Get(ctx, username)
		if err != nil {
			return
		}
		s.notifier.NotifyBalance(username, *entry, s.currencyUtils.LamportsToUSD(balance, rate))
	}
}

func validateSettleRequest(req domain.SettleRequest) error {
	if req.WalletAddress == "" {
		return domain.NewValidationError("walletAddress", "required")
	}
	if req.TransactionID == "" {
		return domain.NewValidationError("transactionId", "required")
	}
	if req.AmountLamports <= 0 {
		return domain.NewValidationError("amountLamports", "must be positive")
	}
	if req.Currency != "" && req.Currency != "SOL" {
		return domain.NewValidationError("currency", "only SOL is supported")
	}
	return nil
}

func (s *settlementService) ProviderBalance(ctx context.Context, req domain.ProviderBalanceRequest, remoteIP string) (*domain.ProviderBalanceResponse, int) {
	username := domain.UsernameFromWallet(req.Login)

	if !strings.EqualFold(req.Command, domain.ProviderCommandGetBalance) {
		return s.providerError(ctx, username, "unknown command"), http.StatusBadRequest
	}

	if err := s.authenticator.VerifyIP(remoteIP); err != nil {
		s.logger.Warn().
			Str("security", "provider_callback").
			Str("remote_ip", remoteIP).
			Str("login", req.Login).
			Msg("Provider callback from disallowed IP")
		return s.providerError(ctx, username, "forbidden"), http.StatusForbidden
	}

	if err := s.authenticator.VerifySignature(req); err != nil {
		if errors.Is(err, domain.ErrSecretUnconfigured) {
			s.logger.Error().
				Str("security", "provider_callback").
				Msg("Provider secret not configured, failing closed")
			return s.providerError(ctx, username, "authentication unavailable"), http.StatusInternalServerError
		}
		s.logger.Warn().
			Str("security", "provider_callback").
			Str("login", req.Login).
			Msg("Provider callback signature mismatch")
		return s.providerError(ctx, username, "invalid signature"), http.StatusBadRequest
	}

	if err := s.authenticator.VerifyTimestamp(req.Timestamp); err != nil {
		s.logger.Warn().
			Str("security", "provider_callback").
			Str("login", req.Login).
			Str("timestamp", req.Timestamp).
			Msg("Provider callback timestamp outside window")
		return s.providerError(ctx, username, "stale timestamp"), http.StatusBadRequest
	}

	if _, err := s.sessions.Get(ctx, username); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn().
				Str("security", "provider_callback").
				Str("username", username).
				Msg("Provider callback without live session")
			return s.providerError(ctx, username, "no active session"), http.StatusForbidden
		}
		return s.providerError(ctx, username, "temporary error"), http.StatusServiceUnavailable
	}

	rate := s.oracle.SynchronizedRate(ctx, username)

	balance, stale, err := s.resolveBalance(ctx, username)
	if err != nil {
		return s.providerError(ctx, username, "temporary error"), http.StatusServiceUnavailable
	}
	if stale {
		s.logger.Warn().
			Str("username", username).
			Int64("balance_lamports", balance).
			Msg("Answering provider callback from stale cache")
	}

	return &domain.ProviderBalanceResponse{
		Status:    domain.ProviderStatusOK,
		Balance:   s.currencyUtils.USDWireString(balance, rate),
		Timestamp: time.Now().UTC().Format(domain.ProviderTimestampLayout),
	}, http.StatusOK
}

// resolveBalance reads the cache first, falls back to the ledger (and
// repopulates the cache), and degrades to a stale cached value when the
// ledger is unreachable. It never fabricates a balance.
func (s *settlementService) resolveBalance(ctx context.Context, username string) (balance int64, stale bool, err error) {
	entry, cacheErr := s.balanceCache.Get(ctx, username)
	if cacheErr == nil && time.Since(entry.UpdatedAt) <= s.freshFor {
		return entry.Balance, false, nil
	}

	account, ledgerErr := s.ledgerRepo.GetAccount(ctx, username)
	if ledgerErr == nil {
		if err := s.balanceCache.Set(ctx, username, account.BalanceLamports); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("Failed to repopulate balance cache")
		}
		return account.BalanceLamports, false, nil
	}
	if errors.Is(ledgerErr, domain.ErrAccountNotFound) {
		// Live session, no deposit yet: an empty account is a real zero.
		return 0, false, nil
	}

	if cacheErr == nil {
		return entry.Balance, true, nil
	}
	return 0, false, domain.NewDependencyError("ledger", ledgerErr)
}

// providerError builds the fixed wire schema with the best available
// last-known balance, so the provider UI never shows a false zero.
func (s *settlementService) providerError(ctx context.Context, username, msg string) *domain.ProviderBalanceResponse {
	rate := s.oracle.SynchronizedRate(ctx, username)

	var balance int64
	if entry, err := s.balanceCache.Get(ctx, username); err == nil {
		balance = entry.Balance
	} else if account, err := s.ledgerRepo.GetAccount(ctx, username); err == nil {
		balance = account.BalanceLamports
	}

	return &domain.ProviderBalanceResponse{
		Status:    domain.ProviderStatusError,
		Balance:   s.currencyUtils.USDWireString(balance, rate),
		ErrorMsg:  msg,
		Timestamp: time.Now().UTC().Format(domain.ProviderTimestampLayout),
	}
}

func (s *settlementService) IssueSessionTicket(ctx context.Context, wallet string, req domain.SessionTicketRequest) (string, *domain.SessionRecord, error) {
	if req.GameID == "" {
		return "", nil, domain.NewValidationError("gameId", "required")
	}
	if req.ProviderToken == "" {
		return "", nil, domain.NewValidationError("providerToken", "required")
	}

	username := domain.UsernameFromWallet(wallet)
	record := domain.SessionRecord{
		Wallet:        wallet,
		GameID:        req.GameID,
		ProviderToken: req.ProviderToken,
		Mode:          req.Mode,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.sessions.Put(ctx, username, record, s.sessionTTL); err != nil {
		return "", nil, domain.NewDependencyError("session registry", err)
	}

	return username, &record, nil
}

func (s *settlementService) ListTransactions(ctx context.Context, wallet string, limit, offset int) ([]domain.Transaction, error) {
	username := domain.UsernameFromWallet(wallet)
	transactions, err := s.ledgerRepo.ListTransactions(ctx, username, limit, offset)
	if err != nil {
		return nil, domain.NewDependencyError("ledger", err)
	}
	return transactions, nil
}
