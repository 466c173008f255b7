package domain

import (
	"time"
)

// usernamePrefixLen is the number of leading wallet-address characters that
// form the provider-facing username. The truncation is deterministic so the
// same wallet always maps to the same account.
const usernamePrefixLen = 16

// UsernameFromWallet derives the stable provider-facing username for a
// wallet address.
func UsernameFromWallet(walletAddress string) string {
	if len(walletAddress) <= usernamePrefixLen {
		return walletAddress
	}
	return walletAddress[:usernamePrefixLen]
}

type Account struct {
	Username          string    `json:"username" db:"username"`
	WalletAddress     string    `json:"wallet_address" db:"wallet_address"`
	SmartVaultAddress string    `json:"smart_vault_address" db:"smart_vault_address"`
	BalanceLamports   int64     `json:"balance_lamports" db:"balance_lamports"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
