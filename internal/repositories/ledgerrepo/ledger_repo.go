package ledgerrepo

import (
	"context"
	"encoding/json"

	"github.com/kachence/sols.bet-sub002/internal/domain"
)

type ApplyDeltaParams struct {
	Username       string
	WalletAddress  string
	VaultAddress   string
	Operation      domain.OperationType
	TransactionID  string
	AmountLamports int64
	AmountUsdCents *int64
	Metadata       json.RawMessage
}

type ApplyDeltaResult struct {
	BalanceAfter int64
	Replayed     bool
}

// ILedgerRepository is the durable balance-of-record. ApplyDelta is the only
// mutation path: it serializes concurrent writes to one account and holds
// the duplicate check and the balance update inside a single transaction, so
// a retried transaction ID can never double-apply.
type ILedgerRepository interface {
	GetAccount(ctx context.Context, username string) (*domain.Account, error)
	CheckDuplicate(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ApplyDelta(ctx context.Context, params ApplyDeltaParams) (*ApplyDeltaResult, error)
	ListTransactions(ctx context.Context, username string, limit, offset int) ([]domain.Transaction, error)
}
