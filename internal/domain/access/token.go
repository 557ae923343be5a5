package access

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "opserp/internal/core/context"
)

// TokenConfig holds access token configuration.
type TokenConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultTokenConfig returns default token configuration.
func DefaultTokenConfig(secret string) TokenConfig {
	return TokenConfig{
		Secret:         secret,
		Issuer:         "opserp",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims identify the actor only. Permissions are never carried in the
// token; they are resolved from the registry on each request.
type Claims struct {
	jwt.RegisteredClaims
	ActorID string `json:"aid"`
	Email   string `json:"email,omitempty"`
}

// TokenService issues and validates access tokens.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a token service.
func NewTokenService(config TokenConfig) *TokenService {
	return &TokenService{config: config}
}

// Issue signs an access token for an actor.
// Issuing tokens for real logins is the job of the identity provider;
// this is used by cmd/seed and tests.
func (s *TokenService) Issue(actor *Actor) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   actor.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ActorID: actor.ID.String(),
		Email:   actor.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a token and returns the caller it identifies.
func (s *TokenService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ActorID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &appctx.UserContext{
		ActorID:   claims.ActorID,
		Email:     claims.Email,
		SessionID: claims.ID,
	}, nil
}
