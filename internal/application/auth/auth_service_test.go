package authservice

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kachence/sols.bet-sub002/internal/domain"
	"github.com/kachence/sols.bet-sub002/pkg/config"
)

const testWallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func newTestAuthService(secret string) *AuthService {
	return NewAuthService(&config.Config{
		JWT: config.JWTConfig{Secret: secret},
	}, zerolog.Nop())
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService("jwt-secret")

	token, err := svc.GenerateToken(context.Background(), testWallet)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, testWallet, claims.Wallet)
	assert.Equal(t, testWallet, claims.Subject)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer := newTestAuthService("jwt-secret")
	verifier := newTestAuthService("different-secret")

	token, err := issuer.GenerateToken(context.Background(), testWallet)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := newTestAuthService("jwt-secret")

	claim := &domain.Claim{
		Wallet: testWallet,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			Issuer:    tokenIssuer,
			Subject:   testWallet,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsWrongIssuer(t *testing.T) {
	svc := newTestAuthService("jwt-secret")

	claim := &domain.Claim{
		Wallet: testWallet,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			Issuer:    "someone-else",
			Subject:   testWallet,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsEmptyWallet(t *testing.T) {
	svc := newTestAuthService("jwt-secret")

	claim := &domain.Claim{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			Issuer:    tokenIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString([]byte("jwt-secret"))
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	assert.Error(t, err)
}

func TestAuthFailsClosedWithoutSecret(t *testing.T) {
	svc := newTestAuthService("")

	_, err := svc.GenerateToken(context.Background(), testWallet)
	assert.Error(t, err)

	_, err = svc.VerifyToken(context.Background(), "any-token")
	assert.Error(t, err)
}
