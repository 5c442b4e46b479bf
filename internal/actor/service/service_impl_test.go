package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/actor/repository"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()
	conn, err := db.NewTest(&domain.Actor{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, orgcontext.WithOrgID(context.Background(), 100)
}

func TestCreateActorWithSponsorAndReferralCode(t *testing.T) {
	svc, ctx := newTestService(t)

	leader, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Lena Leader", Email: "Lena@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "lena@example.com", leader.Email)
	assert.Equal(t, domain.RoleAgent, leader.Role)
	assert.True(t, leader.Active)
	assert.True(t, strings.HasPrefix(leader.ReferralCode, "lena-leader-"))

	byID, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Sam", Email: "sam@example.com", SponsorID: leader.ID.String()})
	require.NoError(t, err)
	require.NotNil(t, byID.SponsorID)
	assert.Equal(t, leader.ID, *byID.SponsorID)

	byCode, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Kim", Email: "kim@example.com", ReferralCode: leader.ReferralCode})
	require.NoError(t, err)
	require.NotNil(t, byCode.SponsorID)
	assert.Equal(t, leader.ID, *byCode.SponsorID)

	team, err := svc.Team(ctx, leader.ID.String())
	require.NoError(t, err)
	assert.Len(t, team, 2)
}

func TestCreateActorValidation(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.Create(ctx, domain.CreateActorRequest{Name: " ", Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateActorRequest{Name: "A", Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(ctx, domain.CreateActorRequest{Name: "A", Email: "a@b.c", Role: "owner"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.Create(ctx, domain.CreateActorRequest{Name: "A", Email: "a@b.c", ReferralCode: "missing"})
	assert.ErrorIs(t, err, domain.ErrSponsorNotFound)

	_, err = svc.Create(ctx, domain.CreateActorRequest{Name: "A", Email: "a@b.c"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateActorRequest{Name: "B", Email: "A@b.c"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Create(context.Background(), domain.CreateActorRequest{Name: "A", Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestSetSponsorRejectsSelf(t *testing.T) {
	svc, ctx := newTestService(t)

	actor, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Solo", Email: "solo@example.com"})
	require.NoError(t, err)

	_, err = svc.SetSponsor(ctx, domain.SetSponsorRequest{ID: actor.ID.String(), SponsorID: actor.ID.String()})
	assert.ErrorIs(t, err, domain.ErrSelfSponsor)

	_, err = svc.SetSponsor(ctx, domain.SetSponsorRequest{ID: actor.ID.String(), SponsorID: "12345"})
	assert.ErrorIs(t, err, domain.ErrSponsorNotFound)

	other, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Other", Email: "other@example.com"})
	require.NoError(t, err)
	updated, err := svc.SetSponsor(ctx, domain.SetSponsorRequest{ID: actor.ID.String(), SponsorID: other.ID.String()})
	require.NoError(t, err)
	require.NotNil(t, updated.SponsorID)
	assert.Equal(t, other.ID, *updated.SponsorID)

	cleared, err := svc.SetSponsor(ctx, domain.SetSponsorRequest{ID: actor.ID.String()})
	require.NoError(t, err)
	assert.Nil(t, cleared.SponsorID)
}

func TestAuthenticate(t *testing.T) {
	svc, ctx := newTestService(t)

	created, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Ada", Email: "ada@example.com", Password: "s3cret", Role: domain.RoleAdmin})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	inactive := false
	_, err = svc.Update(ctx, domain.UpdateActorRequest{ID: created.ID.String(), Active: &inactive})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "ada@example.com", "s3cret")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestGetIsTenantScoped(t *testing.T) {
	svc, ctx := newTestService(t)

	actor, err := svc.Create(ctx, domain.CreateActorRequest{Name: "Tenant", Email: "t@example.com"})
	require.NoError(t, err)

	_, err = svc.Get(orgcontext.WithOrgID(context.Background(), 999), actor.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
