package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	actorrepo "github.com/smallbiznis/fyxed/internal/actor/repository"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	earningsservice "github.com/smallbiznis/fyxed/internal/earnings/service"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/payout/domain"
	"github.com/smallbiznis/fyxed/internal/payout/repository"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	salerepo "github.com/smallbiznis/fyxed/internal/sale/repository"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrg = snowflake.ID(60)

var inMarch = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

func seedActor(t *testing.T, conn *gorm.DB, id snowflake.ID, active bool) {
	t.Helper()
	name := "actor-" + id.String()
	require.NoError(t, conn.Create(&actordomain.Actor{
		ID: id, OrgID: testOrg, Name: name, Email: name + "@example.com", Role: actordomain.RoleAgent,
		ReferralCode: name, Active: active, CreatedAt: inMarch, UpdatedAt: inMarch,
	}).Error)
}

func seedSale(t *testing.T, conn *gorm.DB, id, seller snowflake.ID, share string) {
	t.Helper()
	require.NoError(t, conn.Create(&saledomain.Sale{
		ID: id, OrgID: testOrg, Amount: decimal.NewFromInt(1000), Currency: "EUR", SellerID: seller,
		Source: saledomain.SourceManual, SellerShare: decimal.RequireFromString(share),
		LeaderShare: decimal.Zero, SponsorShare: decimal.Zero, FyxedShare: decimal.NewFromInt(300),
		Status: saledomain.StatusApproved, CreatedAt: inMarch, UpdatedAt: inMarch,
	}).Error)
}

func newService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	conn, err := db.NewTest(&actordomain.Actor{}, &saledomain.Sale{}, &domain.Payout{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	earnings := earningsservice.New(earningsservice.Params{
		DB: conn, Log: zap.NewNop(), Sales: salerepo.Provide(), Actors: actorrepo.Provide(),
	})
	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		Actors:   actorrepo.Provide(),
		Earnings: earnings,
		Config:   config.NewStaticCommissionConfig(config.DefaultCommissionConfig()),
		Metrics:  metrics.New(prometheus.NewRegistry(), metrics.Config{}),
	})
	return svc, conn
}

func admin() context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 1, OrgID: testOrg, Role: orgcontext.RoleAdmin})
}

func TestGenerateSkipsZeroEarningsAndReruns(t *testing.T) {
	svc, conn := newService(t)
	seedActor(t, conn, 10, true)
	seedActor(t, conn, 11, true)
	seedActor(t, conn, 12, false)
	seedSale(t, conn, 100, 10, "500")
	seedSale(t, conn, 101, 12, "500")

	result, err := svc.Generate(admin(), "2026-03")
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, snowflake.ID(10), result.Created[0].ActorID)
	assert.Equal(t, "500.00", result.Created[0].Amount.StringFixed(2))
	assert.Equal(t, domain.StatusPending, result.Created[0].Status)
	assert.Equal(t, 1, result.Skipped)

	seedActor(t, conn, 13, true)
	seedSale(t, conn, 102, 13, "250")

	rerun, err := svc.Generate(admin(), "2026-03")
	require.NoError(t, err)
	require.Len(t, rerun.Created, 1)
	assert.Equal(t, snowflake.ID(13), rerun.Created[0].ActorID)
	assert.Equal(t, 2, rerun.Skipped)

	april, err := svc.Generate(admin(), "2026-04")
	require.NoError(t, err)
	assert.Empty(t, april.Created)

	_, err = svc.Generate(admin(), "March")
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}

func TestMarkPaidAndList(t *testing.T) {
	svc, conn := newService(t)
	seedActor(t, conn, 10, true)
	seedActor(t, conn, 11, true)
	seedSale(t, conn, 100, 10, "500")
	seedSale(t, conn, 101, 11, "80")

	result, err := svc.Generate(admin(), "2026-03")
	require.NoError(t, err)
	require.Len(t, result.Created, 2)

	paid, err := svc.MarkPaid(admin(), result.Created[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.MarkPaid(admin(), result.Created[0].ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	_, err = svc.MarkPaid(admin(), "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err := svc.List(admin(), domain.ListPayoutRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending.Payouts, 1)

	agent := orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 11, OrgID: testOrg, Role: orgcontext.RoleAgent})
	mine, err := svc.List(agent, domain.ListPayoutRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Payouts, 1)
	assert.Equal(t, snowflake.ID(11), mine.Payouts[0].ActorID)

	_, err = svc.List(admin(), domain.ListPayoutRequest{Month: "2026/03"})
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}
