package settlement

import (
	"context"

	"github.com/kachence/sols.bet-sub002/internal/domain"
)

// ISettlementService is the request-handling core: idempotent vault
// settlement (Deposit/Withdraw), the authenticated provider balance
// callback, session ticket issuance and the transaction history read.
type ISettlementService interface {
	Deposit(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error)
	Withdraw(ctx context.Context, req domain.SettleRequest) (*domain.MutationResult, error)
	ProviderBalance(ctx context.Context, req domain.ProviderBalanceRequest, remoteIP string) (*domain.ProviderBalanceResponse, int)
	IssueSessionTicket(ctx context.Context, wallet string, req domain.SessionTicketRequest) (string, *domain.SessionRecord, error)
	ListTransactions(ctx context.Context, wallet string, limit, offset int) ([]domain.Transaction, error)
}

// BalanceNotifier pushes balance transitions to connected clients after a
// settlement commits. Purely advisory; settlement never depends on it.
type BalanceNotifier interface {
	NotifyBalance(username string, entry domain.CacheEntry, balanceUsd float64)
}
