package domain

import (
	"encoding/json"
	"time"
)

type OperationType string

const (
	OpDeposit  OperationType = "deposit"
	OpWithdraw OperationType = "withdraw"
)

// Transaction is an immutable ledger row. TransactionID is the
// client-supplied idempotency key; at most one row ever exists per key and
// its BalanceAfter is authoritative for any retried caller.
type Transaction struct {
	ID             string          `json:"id" db:"id"`
	TransactionID  string          `json:"transaction_id" db:"transaction_id"`
	Username       string          `json:"username" db:"username"`
	Operation      OperationType   `json:"operation" db:"operation"`
	AmountLamports int64           `json:"amount_lamports" db:"amount_lamports"`
	AmountUsdCents *int64          `json:"amount_usd_cents" db:"amount_usd_cents"`
	BalanceAfter   int64           `json:"balance_after" db:"balance_after"`
	Metadata       json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// TxMetadata captures the on-chain context of a settlement at the time it
// was applied.
type TxMetadata struct {
	VaultAddress    string `json:"vault_address,omitempty"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	ExchangeRate    string `json:"exchange_rate,omitempty"`
}
