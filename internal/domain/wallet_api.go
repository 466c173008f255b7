package domain

// SettleRequest is the JSON body of the deposit and withdraw endpoints. The
// client reports a vault mutation it has already signed on-chain; the
// transaction ID doubles as the idempotency key for arbitrary retries.
type SettleRequest struct {
	WalletAddress   string `json:"walletAddress" binding:"required"`
	AmountLamports  int64  `json:"amountLamports" binding:"required"`
	TransactionID   string `json:"transactionId" binding:"required"`
	VaultAddress    string `json:"vaultAddress"`
	TransactionHash string `json:"transactionHash"`
	Currency        string `json:"currency"`
}

// SettleResponse is the mutation endpoints' wire shape.
type SettleResponse struct {
	Success    bool     `json:"success"`
	Balance    *int64   `json:"balance,omitempty"`
	BalanceUsd *float64 `json:"balanceUsd,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// MutationResult is what the settlement service hands back to the HTTP
// layer after a deposit or withdrawal commits (or replays).
type MutationResult struct {
	Username        string
	BalanceLamports int64
	BalanceUsd      float64
	Replayed        bool
}

type SessionTicketRequest struct {
	GameID        string `json:"gameId" binding:"required"`
	ProviderToken string `json:"providerToken" binding:"required"`
	Mode          string `json:"mode"`
}

type SessionTicketResponse struct {
	Success   bool   `json:"success"`
	Username  string `json:"username,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
	Error     string `json:"error,omitempty"`
}
