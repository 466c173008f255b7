package domain

import (
	"time"
)

// SessionRecord binds a provider-facing username to the wallet and provider
// token that last launched a game. It is written on ticket issuance and read
// by the provider balance callback; absence is a security failure, not a
// cache miss.
type SessionRecord struct {
	Wallet        string    `json:"wallet"`
	GameID        string    `json:"game_id"`
	ProviderToken string    `json:"provider_token"`
	Mode          string    `json:"mode"`
	CreatedAt     time.Time `json:"created_at"`
}
