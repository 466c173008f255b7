package domain

import (
	"github.com/dgrijalva/jwt-go"
)

// Claim is the bearer token the web tier attaches to wallet requests. The
// wallet address in the claim, not the request body, decides which account
// a session ticket is issued for.
type Claim struct {
	Wallet string `json:"wallet"`
	jwt.StandardClaims
}
