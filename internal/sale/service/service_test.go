package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/internal/clock"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/sale/domain"
	"github.com/smallbiznis/fyxed/internal/sale/repository"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrg = snowflake.ID(700)

// fakeEngine gives the seller 70% and the house the rest.
type fakeEngine struct {
	sellerRate decimal.Decimal
	leader     *snowflake.ID
	calls      int
}

func (f *fakeEngine) Compute(_ context.Context, amount decimal.Decimal, sellerID snowflake.ID) (commissiondomain.Split, error) {
	f.calls++
	if sellerID == 404 {
		return commissiondomain.Split{}, commissiondomain.ErrSellerNotFound
	}
	seller := amount.Mul(f.sellerRate).Round(2)
	return commissiondomain.Split{
		SellerID:    sellerID,
		LeaderID:    f.leader,
		SellerShare: seller,
		FyxedShare:  amount.Sub(seller).Round(2),
	}, nil
}

type fixture struct {
	svc    domain.Service
	conn   *gorm.DB
	engine *fakeEngine
	clock  *clock.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := db.NewTest(&domain.Sale{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	engine := &fakeEngine{sellerRate: decimal.RequireFromString("0.7")}
	fc := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fc,
		Repo:   repository.Provide(),
		Engine: engine,
		Config: config.NewStaticCommissionConfig(config.DefaultCommissionConfig()),
	})
	return fixture{svc: svc, conn: conn, engine: engine, clock: fc}
}

func adminCtx() context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 1, OrgID: testOrg, Role: orgcontext.RoleAdmin})
}

func agentCtx(id snowflake.ID) context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: id, OrgID: testOrg, Role: orgcontext.RoleAgent})
}

func TestCreateStoresSplit(t *testing.T) {
	f := newFixture(t)

	sale, err := f.svc.Create(adminCtx(), domain.CreateSaleRequest{
		Amount:   decimal.RequireFromString("1000"),
		SellerID: "42",
		Customer: " ACME ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, sale.Status)
	assert.Equal(t, domain.SourceManual, sale.Source)
	assert.Equal(t, "EUR", sale.Currency)
	assert.Equal(t, "ACME", sale.Customer)
	assert.Equal(t, "700.00", sale.SellerShare.StringFixed(2))
	assert.Equal(t, "300.00", sale.FyxedShare.StringFixed(2))

	stored, err := f.svc.Get(adminCtx(), sale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "700.00", stored.SellerShare.StringFixed(2))
}

func TestCreateAgentRules(t *testing.T) {
	f := newFixture(t)

	sale, err := f.svc.Create(agentCtx(42), domain.CreateSaleRequest{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), sale.SellerID)

	_, err = f.svc.Create(agentCtx(42), domain.CreateSaleRequest{Amount: decimal.NewFromInt(10), SellerID: "43"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(agentCtx(43), sale.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(adminCtx(), domain.CreateSaleRequest{Amount: decimal.NewFromInt(-1), SellerID: "42"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Create(adminCtx(), domain.CreateSaleRequest{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidSeller)

	_, err = f.svc.Create(adminCtx(), domain.CreateSaleRequest{Amount: decimal.NewFromInt(1), SellerID: "404"})
	assert.ErrorIs(t, err, commissiondomain.ErrSellerNotFound)

	_, err = f.svc.Create(context.Background(), domain.CreateSaleRequest{Amount: decimal.NewFromInt(1), SellerID: "42"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestPrepareIsIdempotentOnExternalRef(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	req := domain.RecordSaleRequest{
		Amount:      decimal.NewFromInt(50),
		SellerID:    42,
		Source:      domain.SourceStripe,
		ExternalRef: "pi_123",
	}

	sale, existing, err := f.svc.Prepare(ctx, req)
	require.NoError(t, err)
	assert.False(t, existing)
	require.NoError(t, f.svc.Persist(ctx, f.conn, &sale))

	again, existing, err := f.svc.Prepare(ctx, req)
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, sale.ID, again.ID)
	assert.Equal(t, 1, f.engine.calls)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	sale, err := f.svc.Create(ctx, domain.CreateSaleRequest{Amount: decimal.NewFromInt(100), SellerID: "42"})
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, sale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	_, err = f.svc.Approve(ctx, sale.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	paid, err := f.svc.MarkPaid(ctx, sale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.MarkPaid(ctx, sale.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
	_, err = f.svc.Approve(ctx, sale.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	reset, err := f.svc.ResetToOpen(ctx, f.conn, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, reset.Status)
	assert.Nil(t, reset.PaidAt)

	_, err = f.svc.Get(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, domain.CreateSaleRequest{Amount: decimal.NewFromInt(10), SellerID: "42"})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}
	other, err := f.svc.Create(ctx, domain.CreateSaleRequest{Amount: decimal.NewFromInt(10), SellerID: "43"})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, other.ID.String())
	require.NoError(t, err)

	page, err := f.svc.List(ctx, domain.ListSaleRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Sales, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, other.ID, page.Sales[0].ID)

	next, err := f.svc.List(ctx, domain.ListSaleRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken}})
	require.NoError(t, err)
	assert.Len(t, next.Sales, 2)
	assert.False(t, next.HasMore)

	approved, err := f.svc.List(ctx, domain.ListSaleRequest{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, approved.Sales, 1)

	mine, err := f.svc.List(agentCtx(43), domain.ListSaleRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Sales, 1)
	assert.Equal(t, other.ID, mine.Sales[0].ID)

	_, err = f.svc.List(ctx, domain.ListSaleRequest{Status: "void"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestRecomputeUsesCurrentShares(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	sale, err := f.svc.Create(ctx, domain.CreateSaleRequest{Amount: decimal.NewFromInt(200), SellerID: "42"})
	require.NoError(t, err)

	result, err := f.svc.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RecomputeResult{Processed: 1, Changed: 0}, result)

	leader := snowflake.ID(9)
	f.engine.sellerRate = decimal.RequireFromString("0.5")
	f.engine.leader = &leader

	result, err = f.svc.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RecomputeResult{Processed: 1, Changed: 1}, result)

	stored, err := f.svc.Get(ctx, sale.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.SellerShare.StringFixed(2))
	require.NotNil(t, stored.LeaderID)
	assert.Equal(t, leader, *stored.LeaderID)
}
