package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	authdomain "github.com/smallbiznis/fyxed/internal/auth/domain"
	"github.com/smallbiznis/fyxed/internal/auth/session"
	"github.com/smallbiznis/fyxed/internal/authorization"
	commissiondomain "github.com/smallbiznis/fyxed/internal/commission/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	invoicedomain "github.com/smallbiznis/fyxed/internal/invoice/domain"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	sharesettingsdomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminToken = "admin-token"
	agentToken = "agent-token"
)

type fakeAuth struct {
	authdomain.Service
	principals map[string]orgcontext.Principal
}

func (f *fakeAuth) Verify(raw string) (orgcontext.Principal, error) {
	p, ok := f.principals[raw]
	if !ok {
		return orgcontext.Principal{}, authdomain.ErrInvalidToken
	}
	return p, nil
}

func (f *fakeAuth) Login(_ context.Context, req authdomain.LoginRequest) (authdomain.Token, error) {
	if req.Password != "secret" {
		return authdomain.Token{}, authdomain.ErrInvalidCredentials
	}
	return authdomain.Token{
		AccessToken: adminToken,
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
		ActorID:     "1",
		Role:        orgcontext.RoleAdmin,
	}, nil
}

type fakeActors struct {
	actordomain.Service
}

func (fakeActors) Get(_ context.Context, id string) (actordomain.Actor, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil {
		return actordomain.Actor{}, actordomain.ErrInvalidID
	}
	return actordomain.Actor{ID: parsed, Name: "Ana"}, nil
}

type fakeShareSettings struct {
	sharesettingsdomain.Service
	created int
}

func (f *fakeShareSettings) Current(context.Context) (sharesettingsdomain.Shares, error) {
	return sharesettingsdomain.DefaultShares(), nil
}

func (f *fakeShareSettings) Create(_ context.Context, req sharesettingsdomain.CreateShareSettingsRequest) (sharesettingsdomain.ShareSettings, error) {
	shares := sharesettingsdomain.Shares{Seller: req.Seller, Leader: req.Leader, Sponsor: req.Sponsor, FyxedMin: req.FyxedMin}
	if err := shares.Validate(); err != nil {
		return sharesettingsdomain.ShareSettings{}, err
	}
	f.created++
	return sharesettingsdomain.ShareSettings{}, nil
}

type fakeSales struct {
	saledomain.Service
}

func (fakeSales) Get(_ context.Context, id string) (saledomain.Sale, error) {
	if _, err := snowflake.ParseString(id); err != nil {
		return saledomain.Sale{}, saledomain.ErrInvalidID
	}
	return saledomain.Sale{}, saledomain.ErrNotFound
}

type fakeInvoices struct {
	invoicedomain.Service
}

func (fakeInvoices) MarkPaid(context.Context, string) (invoicedomain.Invoice, error) {
	return invoicedomain.Invoice{}, invoicedomain.ErrInvalidStatusTransition
}

type fakePayments struct {
	paymentdomain.Service
}

func (fakePayments) IngestStripeWebhook(_ context.Context, _ []byte, signature string) (paymentdomain.Outcome, error) {
	if signature != "valid" {
		return paymentdomain.Outcome{}, paymentdomain.ErrInvalidSignature
	}
	return paymentdomain.Outcome{EventID: "evt_1", Result: paymentdomain.ResultIgnored}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeShareSettings) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enforcer, err := authorization.NewEnforcer()
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer})

	cfg := config.Config{Environment: "test"}
	shares := &fakeShareSettings{}
	srv := NewServer(ServerParams{
		Gin:      NewEngine(cfg),
		Cfg:      cfg,
		Log:      zap.NewNop(),
		Sessions: session.NewManager(cfg),
		Authsvc: &fakeAuth{principals: map[string]orgcontext.Principal{
			adminToken: {ActorID: 1, OrgID: 100, Role: orgcontext.RoleAdmin},
			agentToken: {ActorID: 2, OrgID: 100, Role: orgcontext.RoleAgent},
		}},
		AuthzSvc:         authz,
		ActorSvc:         fakeActors{},
		ShareSettingsSvc: shares,
		SaleSvc:          fakeSales{},
		InvoiceSvc:       fakeInvoices{},
		PaymentSvc:       fakePayments{},
	})
	srv.RegisterRoutes()
	return srv, shares
}

func doRequest(srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/share-settings", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeError(t, rec).Type)

	rec = doRequest(srv, http.MethodGet, "/api/share-settings", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAgentCannotChangeShareSettings(t *testing.T) {
	srv, shares := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/admin/share-settings", agentToken, map[string]string{
		"seller": "0.5", "leader": "0.1", "sponsor": "0.1", "fyxed_min": "0.2",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", decodeError(t, rec).Type)
	require.Zero(t, shares.created)
}

func TestShareSettingsValidationIsUnprocessable(t *testing.T) {
	srv, shares := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/admin/share-settings", adminToken, map[string]string{
		"seller": "0.7", "leader": "0.2", "sponsor": "0.2", "fyxed_min": "0.2",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	require.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	require.Equal(t, "share_sum_exceeded", payload.Errors[0].Code)

	rec = doRequest(srv, http.MethodPost, "/api/admin/share-settings", adminToken, map[string]string{
		"seller": "0.5", "leader": "0.1", "sponsor": "0.1", "fyxed_min": "0.2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, shares.created)
}

func TestAgentReadsShareSettings(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/share-settings", agentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data sharesettingsdomain.Shares `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data.Seller.Equal(sharesettingsdomain.DefaultShares().Seller))
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/sales/42", adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeError(t, rec).Type)

	rec = doRequest(srv, http.MethodGet, "/api/sales/not-an-id", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", decodeError(t, rec).Type)

	rec = doRequest(srv, http.MethodPost, "/api/admin/invoices/42/mark-paid", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "conflict", decodeError(t, rec).Type)
}

func TestMapErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{pipelinedomain.ErrInvalidPhase, http.StatusBadRequest, "invalid_argument"},
		{pipelinedomain.ErrInvalidStatus, http.StatusBadRequest, "invalid_argument"},
		{pipelinedomain.ErrInvalidGoal, http.StatusBadRequest, "invalid_argument"},
		{pipelinedomain.ErrInvalidContactMethod, http.StatusBadRequest, "invalid_argument"},
		{pipelinedomain.ErrInvalidContactOutcome, http.StatusBadRequest, "invalid_argument"},
		{pipelinedomain.ErrInvalidDealResult, http.StatusBadRequest, "invalid_argument"},
		{saledomain.ErrInvalidAmount, http.StatusBadRequest, "invalid_argument"},
		{commissiondomain.ErrNegativeAmount, http.StatusBadRequest, "invalid_argument"},
		{actordomain.ErrSelfSponsor, http.StatusBadRequest, "invalid_argument"},
		{fmt.Errorf("recompute: %w", commissiondomain.ErrSellerNotFound), http.StatusNotFound, "not_found"},
		{pipelinedomain.ErrInvalidStatusTransition, http.StatusConflict, "conflict"},
		{sharesettingsdomain.ErrShareOutOfRange, http.StatusUnprocessableEntity, "validation_error"},
		{sharesettingsdomain.ErrShareSumExceeded, http.StatusUnprocessableEntity, "validation_error"},
		{pipelinedomain.ErrInvalidDealValue, http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		require.Equal(t, tc.status, status, tc.err.Error())
		require.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}

	_, payload := mapError(pipelinedomain.ErrInvalidPhase)
	require.Equal(t, "invalid phase", payload.Message)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/auth/login", "", map[string]string{
		"organization_id": "100", "email": "ana@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/auth/login", "", map[string]string{
		"organization_id": "100", "email": "ana@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Set-Cookie"), session.DefaultCookieName+"="+adminToken)
}

func TestMeUsesCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: agentToken})
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"agent"`)
}

func TestStripeWebhookSkipsAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "invalid")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "valid")
	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "evt_1")
}

func TestStripeWebhookRejectsOversizedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	body := bytes.Repeat([]byte("a"), maxWebhookBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "valid")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid payload", decodeError(t, rec).Message)
}

func TestMapErrorHidesInternals(t *testing.T) {
	status, payload := mapError(context.DeadlineExceeded)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal_error", payload.Type)
	require.Equal(t, "internal server error", payload.Message)

	status, payload = mapError(ErrTooManyRequests)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, "too_many_requests", payload.Type)

	status, payload = mapError(newValidationError("amount", "invalid_amount", "invalid amount"))
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "amount", payload.Errors[0].Field)
}
