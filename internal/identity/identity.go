// Package identity is the narrow "identity resolution from a bearer
// token" external capability spec.md §1 says the core only consumes,
// plus a concrete JWT-backed default implementation (since spec.md
// treats the auth/account service as out of scope, but this module
// ships one anyway so the gateway's admission path has something real
// to call).
package identity

import (
	"context"
	"fmt"

	"github.com/Unkno394/QuizBattleee/internal/auth"
)

// Identity is the resolved caller behind a bearer token (§4.1).
type Identity struct {
	UserID string
	Key    string // "acct:<uid>"
}

// Resolver resolves a bearer token to an Identity. Failure must map to
// AUTH_TOKEN_INVALID at the gateway.
type Resolver interface {
	Resolve(ctx context.Context, bearerToken string) (Identity, error)
}

// JWTResolver resolves tokens issued by this module's own auth.JWTManager,
// the one piece of the identity service this module ships a concrete
// implementation for, per the DOMAIN STACK note on golang-jwt/jwt/v5.
type JWTResolver struct {
	manager *auth.JWTManager
}

func NewJWTResolver(manager *auth.JWTManager) *JWTResolver {
	return &JWTResolver{manager: manager}
}

func (r *JWTResolver) Resolve(ctx context.Context, bearerToken string) (Identity, error) {
	claims, err := r.manager.Parse(bearerToken)
	if err != nil {
		return Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return Identity{UserID: claims.UserID, Key: "acct:" + claims.UserID}, nil
}
