package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"github.com/smallbiznis/fyxed/internal/sharesettings/repository"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest(&domain.ShareSettings{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: repository.Provide()}), clk
}

func TestCurrentFallsBackToDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), 1)

	shares, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.50", shares.Seller.StringFixed(2))
	assert.Equal(t, "0.10", shares.Leader.StringFixed(2))
	assert.Equal(t, "0.10", shares.Sponsor.StringFixed(2))
	assert.Equal(t, "0.30", shares.FyxedMin.StringFixed(2))
}

func TestCreateVersionsAndCurrentIsLatest(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 9, OrgID: 1, Role: orgcontext.RoleAdmin})

	_, err := svc.Create(ctx, domain.CreateShareSettingsRequest{Seller: d("0.4"), Leader: d("0.1"), Sponsor: d("0.1"), FyxedMin: d("0.3")})
	require.NoError(t, err)
	clk.Advance(time.Hour)
	latest, err := svc.Create(ctx, domain.CreateShareSettingsRequest{Seller: d("0.5"), Leader: d("0.1"), Sponsor: d("0.1"), FyxedMin: d("0.45")})
	require.NoError(t, err)
	require.NotNil(t, latest.CreatedBy)
	assert.Equal(t, snowflake.ID(9), *latest.CreatedBy)

	current, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.45", current.FyxedMin.StringFixed(2))

	history, err := svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, latest.ID, history[0].ID)

	// other tenants still see defaults
	other, err := svc.Current(orgcontext.WithOrgID(context.Background(), 2))
	require.NoError(t, err)
	assert.Equal(t, "0.30", other.FyxedMin.StringFixed(2))
}

func TestCreateRejectsInvalidSharesWithoutWriting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), 1)

	_, err := svc.Create(ctx, domain.CreateShareSettingsRequest{Seller: d("0.7"), Leader: d("0.2"), Sponsor: d("0.2"), FyxedMin: d("0.1")})
	assert.ErrorIs(t, err, domain.ErrShareSumExceeded)

	_, err = svc.Create(ctx, domain.CreateShareSettingsRequest{Seller: d("0.5"), Leader: d("0.1"), Sponsor: d("0.1"), FyxedMin: d("1.5")})
	assert.ErrorIs(t, err, domain.ErrShareOutOfRange)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
