package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/fyxed/internal/orgcontext"
)

type LoginRequest struct {
	OrgID    string `json:"organization_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ActorID     string    `json:"actor_id"`
	Role        string    `json:"role"`
}

type Service interface {
	// Login checks the actor's password and issues a signed access token.
	Login(ctx context.Context, req LoginRequest) (Token, error)
	Issue(principal orgcontext.Principal) (Token, error)
	// Verify parses a bearer token into the principal it was issued for.
	Verify(raw string) (orgcontext.Principal, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenExpired       = errors.New("token_expired")
	ErrSecretNotSet       = errors.New("auth_secret_not_set")
)
