package service

import (
	"context"
	"time"

	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/internal/notifier"
	"github.com/ikkim/talentbase-backend/pkg/util"
)

type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Notifier delivers messages asynchronously. Send must not block on delivery.
type Notifier interface {
	Send(ctx context.Context, msg notifier.Message)
}

type SessionIssuer interface {
	Issue(account *model.Account) (*util.TokenPair, error)
}

type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiry time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type JWTSessionIssuer struct {
	secret        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewJWTSessionIssuer(secret string, accessExpiry, refreshExpiry time.Duration) *JWTSessionIssuer {
	return &JWTSessionIssuer{
		secret:        secret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (i *JWTSessionIssuer) Issue(account *model.Account) (*util.TokenPair, error) {
	return util.GenerateTokenPair(
		account.ID,
		account.Email,
		string(account.Role),
		i.secret,
		i.accessExpiry,
		i.refreshExpiry,
	)
}
