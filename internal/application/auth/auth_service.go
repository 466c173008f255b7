package authservice

import (
	"context"

	"github.com/kachence/sols.bet-sub002/internal/domain"
)

type IAuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error)
	GenerateToken(ctx context.Context, wallet string) (string, error)
}
