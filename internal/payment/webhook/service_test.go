package webhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/internal/clock"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	creditrepository "github.com/smallbiznis/fyxed/internal/credit/repository"
	creditservice "github.com/smallbiznis/fyxed/internal/credit/service"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	"github.com/smallbiznis/fyxed/internal/payment/repository"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	salerepository "github.com/smallbiznis/fyxed/internal/sale/repository"
	saleservice "github.com/smallbiznis/fyxed/internal/sale/service"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v84/webhook"
	"go.uber.org/zap"
)

const (
	testSecret = "whsec_test"
	testOrg    = "610"
)

type halfEngine struct{}

func (halfEngine) Compute(_ context.Context, amount decimal.Decimal, sellerID snowflake.ID) (commissiondomain.Split, error) {
	if sellerID == 404 {
		return commissiondomain.Split{}, commissiondomain.ErrSellerNotFound
	}
	half := amount.Div(decimal.NewFromInt(2)).Round(2)
	return commissiondomain.Split{SellerID: sellerID, SellerShare: half, FyxedShare: amount.Sub(half)}, nil
}

type fixture struct {
	svc     paymentdomain.Service
	sales   saledomain.Service
	credits creditdomain.Service
}

func newFixture(t *testing.T, secret string) fixture {
	t.Helper()
	conn, err := db.NewTest(&paymentdomain.EventRecord{}, &saledomain.Sale{}, &creditdomain.Balance{}, &creditdomain.Transaction{})
	require.NoError(t, err)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	m := metrics.New(prometheus.NewRegistry(), metrics.Config{ServiceName: "test"})

	sales := saleservice.New(saleservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fc,
		Repo:   salerepository.Provide(),
		Engine: halfEngine{},
		Config: config.NewStaticCommissionConfig(config.DefaultCommissionConfig()),
	})
	credits := creditservice.New(creditservice.Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fc,
		Repo:    creditrepository.Provide(),
		Metrics: m,
	})
	svc := NewService(Params{
		DB: conn, Log: zap.NewNop(), GenID: node, Clock: fc,
		Cfg:     config.Config{StripeWebhookSecret: secret},
		Repo:    repository.Provide(),
		Sales:   sales,
		Credits: credits,
		Metrics: m,
	})
	return fixture{svc: svc, sales: sales, credits: credits}
}

func signedEvent(t *testing.T, eventID, eventType string, intent map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": intent},
	})
	require.NoError(t, err)
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload: payload,
		Secret:  testSecret,
	})
	return signed.Payload, signed.Header
}

func adminCtx() context.Context {
	return orgcontext.WithPrincipal(context.Background(), orgcontext.Principal{ActorID: 1, OrgID: 610, Role: orgcontext.RoleAdmin})
}

func TestPaymentIntentRecordsPaidSale(t *testing.T) {
	f := newFixture(t, testSecret)
	payload, header := signedEvent(t, "evt_1", "payment_intent.succeeded", map[string]any{
		"id":              "pi_1",
		"object":          "payment_intent",
		"amount":          125000,
		"amount_received": 125000,
		"currency":        "eur",
		"metadata":        map[string]string{"org_id": testOrg, "seller_id": "42", "customer": "Hotel Adler"},
	})

	outcome, err := f.svc.IngestStripeWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.ResultSaleRecorded, outcome.Result)
	require.NotNil(t, outcome.SaleID)

	sale, err := f.sales.Get(adminCtx(), outcome.SaleID.String())
	require.NoError(t, err)
	assert.Equal(t, "1250.00", sale.Amount.StringFixed(2))
	assert.Equal(t, saledomain.SourceStripe, sale.Source)
	assert.Equal(t, saledomain.StatusPaid, sale.Status)
	assert.Equal(t, "Hotel Adler", sale.Customer)
	assert.Equal(t, "625.00", sale.SellerShare.StringFixed(2))

	again, err := f.svc.IngestStripeWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.ResultDuplicate, again.Result)
}

func TestPaymentIntentCreditTopUp(t *testing.T) {
	f := newFixture(t, testSecret)
	payload, header := signedEvent(t, "evt_2", "payment_intent.succeeded", map[string]any{
		"id":       "pi_2",
		"object":   "payment_intent",
		"amount":   2000,
		"currency": "eur",
		"metadata": map[string]string{"org_id": testOrg, "actor_id": "42", "purpose": "credit_topup"},
	})

	outcome, err := f.svc.IngestStripeWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.ResultCreditTopUp, outcome.Result)
	require.NotNil(t, outcome.TransactionID)

	balance, err := f.credits.Balance(adminCtx(), "42")
	require.NoError(t, err)
	assert.Equal(t, "20.00", balance.Balance.StringFixed(2))
}

func TestWebhookRejectsBadInput(t *testing.T) {
	f := newFixture(t, testSecret)
	payload, header := signedEvent(t, "evt_3", "payment_intent.succeeded", map[string]any{
		"id":       "pi_3",
		"object":   "payment_intent",
		"amount":   100,
		"metadata": map[string]string{"org_id": testOrg},
	})

	_, err := f.svc.IngestStripeWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	_, err = f.svc.IngestStripeWebhook(context.Background(), payload, header)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidMetadata)

	payload, header = signedEvent(t, "evt_4", "payment_intent.succeeded", map[string]any{
		"id":       "pi_4",
		"object":   "payment_intent",
		"amount":   100,
		"metadata": map[string]string{"org_id": testOrg, "seller_id": "404"},
	})
	_, err = f.svc.IngestStripeWebhook(context.Background(), payload, header)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidMetadata)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t, testSecret)
	payload, header := signedEvent(t, "evt_5", "charge.refunded", map[string]any{"id": "ch_1", "object": "charge"})

	outcome, err := f.svc.IngestStripeWebhook(context.Background(), payload, header)
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.ResultIgnored, outcome.Result)
}

func TestWebhookRequiresSecret(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.svc.IngestStripeWebhook(context.Background(), []byte(`{}`), "")
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidConfig)
}
