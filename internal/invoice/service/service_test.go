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
	"github.com/smallbiznis/fyxed/internal/invoice/domain"
	"github.com/smallbiznis/fyxed/internal/invoice/render"
	"github.com/smallbiznis/fyxed/internal/invoice/repository"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	salerepository "github.com/smallbiznis/fyxed/internal/sale/repository"
	saleservice "github.com/smallbiznis/fyxed/internal/sale/service"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOrg = snowflake.ID(900)

type flatEngine struct{}

func (flatEngine) Compute(_ context.Context, amount decimal.Decimal, sellerID snowflake.ID) (commissiondomain.Split, error) {
	seller := amount.Mul(decimal.RequireFromString("0.5")).Round(2)
	return commissiondomain.Split{
		SellerID:    sellerID,
		SellerShare: seller,
		FyxedShare:  amount.Sub(seller),
	}, nil
}

type fixture struct {
	svc   domain.Service
	sales saledomain.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := db.NewTest(&domain.Invoice{}, &saledomain.Sale{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC))
	cfg := config.NewStaticCommissionConfig(config.DefaultCommissionConfig())
	sales := saleservice.New(saleservice.Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fc,
		Repo:   salerepository.Provide(),
		Engine: flatEngine{},
		Config: cfg,
	})
	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Repo:     repository.Provide(),
		Sales:    sales,
		Renderer: render.NewPDFRenderer(),
		Config:   cfg,
	})
	return fixture{svc: svc, sales: sales}
}

func adminCtx() context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 1, OrgID: testOrg, Role: orgcontext.RoleAdmin})
}

func agentCtx(id snowflake.ID) context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: id, OrgID: testOrg, Role: orgcontext.RoleAgent})
}

func createRequest(seller string) domain.CreateInvoiceRequest {
	return domain.CreateInvoiceRequest{
		SellerID:     seller,
		CustomerName: "Bakery Schmidt",
		Lines: []domain.LineInput{
			{Description: "Setup", Quantity: 1, UnitPrice: decimal.RequireFromString("500")},
			{Description: "Training hours", Quantity: 4, UnitPrice: decimal.RequireFromString("62.50")},
		},
	}
}

func TestCreateIssuesInvoiceAndSale(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(adminCtx(), createRequest("42"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIssued, inv.Status)
	assert.Regexp(t, `^INV-202604-[0-9A-Z]{26}$`, inv.Number)
	assert.Equal(t, "750.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "142.50", inv.VATAmount.StringFixed(2))
	assert.Equal(t, "892.50", inv.Total.StringFixed(2))
	assert.Equal(t, time.Date(2026, 4, 24, 8, 0, 0, 0, time.UTC), inv.DueAt)
	require.NotNil(t, inv.SaleID)

	sale, err := f.sales.Get(adminCtx(), inv.SaleID.String())
	require.NoError(t, err)
	assert.Equal(t, saledomain.SourceInvoice, sale.Source)
	assert.Equal(t, "750.00", sale.Amount.StringFixed(2))
	require.NotNil(t, sale.InvoiceID)
	assert.Equal(t, inv.ID, *sale.InvoiceID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	req := createRequest("42")
	req.CustomerName = " "
	_, err := f.svc.Create(adminCtx(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)

	req = createRequest("42")
	req.Lines = nil
	_, err = f.svc.Create(adminCtx(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidLines)

	req = createRequest("42")
	req.Lines[0].Quantity = 0
	_, err = f.svc.Create(adminCtx(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidLines)

	_, err = f.svc.Create(agentCtx(42), createRequest("43"))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMarkPaidSettlesSale(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Create(adminCtx(), createRequest("42"))
	require.NoError(t, err)

	paid, err := f.svc.MarkPaid(adminCtx(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	sale, err := f.sales.Get(adminCtx(), inv.SaleID.String())
	require.NoError(t, err)
	assert.Equal(t, saledomain.StatusPaid, sale.Status)

	_, err = f.svc.MarkPaid(adminCtx(), inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestCancelReopensSale(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Create(adminCtx(), createRequest("42"))
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(adminCtx(), inv.ID.String())
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(adminCtx(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	sale, err := f.sales.Get(adminCtx(), inv.SaleID.String())
	require.NoError(t, err)
	assert.Equal(t, saledomain.StatusOpen, sale.Status)
	assert.Nil(t, sale.PaidAt)

	_, err = f.svc.Cancel(adminCtx(), inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestAgentVisibility(t *testing.T) {
	f := newFixture(t)
	own, err := f.svc.Create(agentCtx(42), createRequest(""))
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), own.SellerID)
	_, err = f.svc.Create(adminCtx(), createRequest("43"))
	require.NoError(t, err)

	_, err = f.svc.Get(agentCtx(43), own.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resp, err := f.svc.List(agentCtx(42), domain.ListInvoiceRequest{Pagination: pagination.Pagination{PageSize: 10}})
	require.NoError(t, err)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, own.ID, resp.Invoices[0].ID)

	all, err := f.svc.List(adminCtx(), domain.ListInvoiceRequest{Pagination: pagination.Pagination{PageSize: 10}})
	require.NoError(t, err)
	assert.Len(t, all.Invoices, 2)

	_, err = f.svc.List(adminCtx(), domain.ListInvoiceRequest{Status: "void"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Create(adminCtx(), createRequest("42"))
	require.NoError(t, err)

	out, err := f.svc.RenderPDF(adminCtx(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}
