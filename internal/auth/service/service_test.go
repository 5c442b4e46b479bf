package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	actorrepository "github.com/smallbiznis/fyxed/internal/actor/repository"
	actorservice "github.com/smallbiznis/fyxed/internal/actor/service"
	"github.com/smallbiznis/fyxed/internal/auth/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOrg = snowflake.ID(810)

func newService(t *testing.T, secret string) (domain.Service, actordomain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest(&actordomain.Actor{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(8)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC))

	actors := actorservice.New(actorservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fc,
		Repo: actorrepository.Provide(),
	})
	svc := New(Params{
		Log:    zap.NewNop(),
		Cfg:    config.Config{AuthJWTSecret: secret, AuthTokenTTL: time.Hour},
		Clock:  fc,
		Actors: actors,
	})
	return svc, actors, fc
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, actors, _ := newService(t, "s3cret")
	actor, err := actors.Create(orgcontext.WithOrgID(context.Background(), int64(testOrg)), actordomain.CreateActorRequest{
		Name:     "Mia",
		Email:    "mia@example.com",
		Role:     actordomain.RoleAdmin,
		Password: "correct horse",
	})
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), domain.LoginRequest{
		OrgID:    testOrg.String(),
		Email:    " MIA@example.com ",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, actor.ID.String(), token.ActorID)

	principal, err := svc.Verify(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, principal.ActorID)
	assert.Equal(t, testOrg, principal.OrgID)
	assert.True(t, principal.IsAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, actors, _ := newService(t, "s3cret")
	_, err := actors.Create(orgcontext.WithOrgID(context.Background(), int64(testOrg)), actordomain.CreateActorRequest{
		Name: "Mia", Email: "mia@example.com", Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), domain.LoginRequest{OrgID: testOrg.String(), Email: "mia@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), domain.LoginRequest{OrgID: "nope", Email: "mia@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	svc, _, fc := newService(t, "s3cret")
	token, err := svc.Issue(orgcontext.Principal{ActorID: 5, OrgID: testOrg, Role: orgcontext.RoleAgent})
	require.NoError(t, err)

	other, _, _ := newService(t, "different")
	_, err = other.Verify(token.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	fc.Advance(2 * time.Hour)
	_, err = svc.Verify(token.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestMissingSecret(t *testing.T) {
	svc, _, _ := newService(t, "")
	_, err := svc.Issue(orgcontext.Principal{ActorID: 5, OrgID: testOrg, Role: orgcontext.RoleAgent})
	assert.ErrorIs(t, err, domain.ErrSecretNotSet)
	_, err = svc.Verify("x")
	assert.ErrorIs(t, err, domain.ErrSecretNotSet)
}
