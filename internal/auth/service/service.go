package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/auth/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	issuer          = "fyxed"
	tokenType       = "Bearer"
	defaultTokenTTL = 12 * time.Hour
)

// Claims carries the tenant and role next to the actor id in the subject.
type Claims struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Cfg    config.Config
	Clock  clock.Clock
	Actors actordomain.Service
}

type Service struct {
	log    *zap.Logger
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	actors actordomain.Service
}

func New(p Params) domain.Service {
	ttl := p.Cfg.AuthTokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{
		log:    p.Log.Named("auth.service"),
		secret: []byte(strings.TrimSpace(p.Cfg.AuthJWTSecret)),
		ttl:    ttl,
		clock:  p.Clock,
		actors: p.Actors,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.Token, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil || orgID == 0 {
		return domain.Token{}, domain.ErrInvalidCredentials
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	actor, err := s.actors.Authenticate(orgcontext.WithOrgID(ctx, int64(orgID)), email, req.Password)
	if err != nil {
		if errors.Is(err, actordomain.ErrInvalidCredentials) {
			s.log.Info("login rejected", zap.String("org_id", orgID.String()))
			return domain.Token{}, domain.ErrInvalidCredentials
		}
		return domain.Token{}, err
	}
	return s.Issue(orgcontext.Principal{ActorID: actor.ID, OrgID: actor.OrgID, Role: string(actor.Role)})
}

func (s *Service) Issue(principal orgcontext.Principal) (domain.Token, error) {
	if len(s.secret) == 0 {
		return domain.Token{}, domain.ErrSecretNotSet
	}
	if principal.ActorID == 0 || principal.OrgID == 0 {
		return domain.Token{}, domain.ErrInvalidCredentials
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		OrgID: principal.OrgID.String(),
		Role:  principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principal.ActorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		AccessToken: signed,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt,
		ActorID:     principal.ActorID.String(),
		Role:        principal.Role,
	}, nil
}

func (s *Service) Verify(raw string) (orgcontext.Principal, error) {
	if len(s.secret) == 0 {
		return orgcontext.Principal{}, domain.ErrSecretNotSet
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return orgcontext.Principal{}, domain.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return orgcontext.Principal{}, domain.ErrTokenExpired
		}
		return orgcontext.Principal{}, domain.ErrInvalidToken
	}
	if !token.Valid {
		return orgcontext.Principal{}, domain.ErrInvalidToken
	}

	actorID, err := snowflake.ParseString(claims.Subject)
	if err != nil || actorID == 0 {
		return orgcontext.Principal{}, domain.ErrInvalidToken
	}
	orgID, err := snowflake.ParseString(claims.OrgID)
	if err != nil || orgID == 0 {
		return orgcontext.Principal{}, domain.ErrInvalidToken
	}
	if claims.Role != orgcontext.RoleAdmin && claims.Role != orgcontext.RoleAgent {
		return orgcontext.Principal{}, domain.ErrInvalidToken
	}
	return orgcontext.Principal{ActorID: actorID, OrgID: orgID, Role: claims.Role}, nil
}
