package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	actorrepository "github.com/smallbiznis/fyxed/internal/actor/repository"
	actorservice "github.com/smallbiznis/fyxed/internal/actor/service"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newActorService(t *testing.T) actordomain.Service {
	t.Helper()
	conn, err := db.NewTest(&actordomain.Actor{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return actorservice.New(actorservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)),
		Repo:  actorrepository.Provide(),
	})
}

func TestEnsureBootstrapAdminIsIdempotent(t *testing.T) {
	actors := newActorService(t)
	cfg := config.Config{
		BootstrapOrgID:         7,
		BootstrapAdminEmail:    "owner@example.com",
		BootstrapAdminPassword: "changeme",
	}

	require.NoError(t, EnsureBootstrapAdmin(context.Background(), actors, cfg, zap.NewNop()))
	require.NoError(t, EnsureBootstrapAdmin(context.Background(), actors, cfg, zap.NewNop()))

	ctx := orgcontext.WithOrgID(context.Background(), 7)
	admin, err := actors.Authenticate(ctx, "owner@example.com", "changeme")
	require.NoError(t, err)
	require.Equal(t, actordomain.RoleAdmin, admin.Role)
	require.Equal(t, "Fyxed Admin", admin.Name)
}

func TestEnsureBootstrapAdminSkipsWithoutCredentials(t *testing.T) {
	actors := newActorService(t)

	require.NoError(t, EnsureBootstrapAdmin(context.Background(), actors, config.Config{BootstrapOrgID: 7}, zap.NewNop()))

	ctx := orgcontext.WithOrgID(context.Background(), 7)
	list, err := actors.List(ctx, actordomain.ListActorRequest{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestEnsureBootstrapAdminRejectsMissingOrg(t *testing.T) {
	actors := newActorService(t)
	cfg := config.Config{BootstrapAdminEmail: "owner@example.com", BootstrapAdminPassword: "x"}

	require.ErrorIs(t, EnsureBootstrapAdmin(context.Background(), actors, cfg, nil), ErrInvalidBootstrapOrg)
}
