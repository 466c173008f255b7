package domain

// ProviderTimestampLayout is the timestamp format the game provider expects
// in balance responses. Part of the provider's wire contract.
const ProviderTimestampLayout = "2006-01-02 15:04:05"

const ProviderCommandGetBalance = "getbalance"

// ProviderBalanceRequest is the provider-defined callback body. Field names
// are dictated by the third-party protocol and must not change.
type ProviderBalanceRequest struct {
	Command   string `json:"command" binding:"required"`
	UserID    string `json:"userid" binding:"required"`
	Login     string `json:"login" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
	Signature string `json:"signature"`
}

// ProviderBalanceResponse is the fixed response schema the provider parses.
// Balance is always a two-decimal USD string, even on errors, so the
// provider UI never renders a false zero.
type ProviderBalanceResponse struct {
	Status    string `json:"status"`
	Balance   string `json:"balance"`
	ErrorMsg  string `json:"errormsg,omitempty"`
	Timestamp string `json:"timestamp"`
}

const (
	ProviderStatusOK    = "1"
	ProviderStatusError = "0"
)
