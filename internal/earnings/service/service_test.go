package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	actorrepo "github.com/smallbiznis/fyxed/internal/actor/repository"
	"github.com/smallbiznis/fyxed/internal/earnings/domain"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	salerepo "github.com/smallbiznis/fyxed/internal/sale/repository"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrg = snowflake.ID(40)

var (
	march = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	start = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
)

func seedActor(t *testing.T, conn *gorm.DB, id snowflake.ID, name string, sponsor *snowflake.ID) {
	t.Helper()
	require.NoError(t, conn.Create(&actordomain.Actor{
		ID: id, OrgID: testOrg, Name: name, Email: name + "@example.com", Role: actordomain.RoleAgent,
		SponsorID: sponsor, ReferralCode: name, Active: true, CreatedAt: march, UpdatedAt: march,
	}).Error)
}

func seedSale(t *testing.T, conn *gorm.DB, id, seller snowflake.ID, leader *snowflake.ID, status saledomain.Status, amount string, created time.Time) {
	t.Helper()
	total := decimal.RequireFromString(amount)
	s := saledomain.Sale{
		ID: id, OrgID: testOrg, Amount: total, Currency: "EUR", SellerID: seller, Source: saledomain.SourceManual,
		LeaderID: leader, SellerShare: total.Mul(decimal.RequireFromString("0.5")), LeaderShare: decimal.Zero,
		SponsorShare: decimal.Zero, FyxedShare: total.Mul(decimal.RequireFromString("0.4")),
		Status: status, CreatedAt: created, UpdatedAt: created,
	}
	if leader != nil {
		s.LeaderShare = total.Mul(decimal.RequireFromString("0.1"))
	}
	require.NoError(t, conn.Create(&s).Error)
}

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	conn, err := db.NewTest(&actordomain.Actor{}, &saledomain.Sale{})
	require.NoError(t, err)
	return New(Params{DB: conn, Log: zap.NewNop(), Sales: salerepo.Provide(), Actors: actorrepo.Provide()}), conn
}

func admin() context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 99, OrgID: testOrg, Role: orgcontext.RoleAdmin})
}

func TestCalculateTeamEarnings(t *testing.T) {
	svc, conn := newService(t)
	leader := snowflake.ID(1)
	seedActor(t, conn, leader, "lena", nil)
	seedActor(t, conn, 2, "mia", &leader)
	seedActor(t, conn, 3, "tom", &leader)

	seedSale(t, conn, 10, 2, &leader, saledomain.StatusApproved, "1000", march)
	seedSale(t, conn, 11, 2, &leader, saledomain.StatusOpen, "500", march)
	seedSale(t, conn, 12, 3, &leader, saledomain.StatusPaid, "200", march)
	seedSale(t, conn, 13, 3, &leader, saledomain.StatusPaid, "200", march.AddDate(0, 1, 0))
	seedSale(t, conn, 14, 1, nil, saledomain.StatusPaid, "100", march)

	team, err := svc.CalculateTeamEarnings(admin(), leader.String(), start, end)
	require.NoError(t, err)

	assert.Equal(t, "50.00", team.Leader.OwnSales.StringFixed(2))
	assert.Equal(t, "120.00", team.Leader.Overrides.StringFixed(2))
	assert.Equal(t, "170.00", team.Leader.Total.StringFixed(2))
	assert.Equal(t, 2, team.TeamSalesCount)
	assert.Equal(t, "1200.00", team.TeamSalesVolume.StringFixed(2))
	assert.Equal(t, "120.00", team.TeamOverrides.StringFixed(2))
	require.Len(t, team.Members, 2)
	assert.Equal(t, "mia", team.Members[0].Name)
	assert.Equal(t, "100.00", team.Members[0].OverrideToLeader.StringFixed(2))
	assert.Equal(t, "100.00", team.Members[1].OwnSales.StringFixed(2))

	mia, err := svc.CalculateEarnings(admin(), "2", start, end)
	require.NoError(t, err)
	assert.Equal(t, "500.00", mia.Total.StringFixed(2))
	assert.Equal(t, 1, mia.SalesCount)
}

func TestCalculateEarningsGuards(t *testing.T) {
	svc, conn := newService(t)
	seedActor(t, conn, 1, "lena", nil)

	_, err := svc.CalculateEarnings(admin(), "1", end, start)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
	_, err = svc.CalculateEarnings(admin(), "7", start, end)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.CalculateEarnings(admin(), "nope", start, end)
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	agent := orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 2, OrgID: testOrg, Role: orgcontext.RoleAgent})
	_, err = svc.CalculateEarnings(agent, "1", start, end)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	empty, err := svc.CalculateEarnings(admin(), "1", start, end)
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
}
