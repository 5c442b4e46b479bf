package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	analyticsdomain "github.com/smallbiznis/fyxed/internal/analytics/domain"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	authdomain "github.com/smallbiznis/fyxed/internal/auth/domain"
	"github.com/smallbiznis/fyxed/internal/auth/session"
	"github.com/smallbiznis/fyxed/internal/authorization"
	callbillingdomain "github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/config"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	earningsdomain "github.com/smallbiznis/fyxed/internal/earnings/domain"
	invoicedomain "github.com/smallbiznis/fyxed/internal/invoice/domain"
	obslogger "github.com/smallbiznis/fyxed/internal/observability/logger"
	obstracing "github.com/smallbiznis/fyxed/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/fyxed/internal/payment/domain"
	payoutdomain "github.com/smallbiznis/fyxed/internal/payout/domain"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
	"github.com/smallbiznis/fyxed/internal/ratelimit"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	sharesettingsdomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
		QuietRoutes:     []string{"/healthz", "/metrics"},
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	authsvc      authdomain.Service
	sessions     *session.Manager
	loginLimiter *ratelimit.LoginLimiter
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service

	actorSvc         actordomain.Service
	shareSettingsSvc sharesettingsdomain.Service
	saleSvc          saledomain.Service
	pipelineSvc      pipelinedomain.Service
	analyticsSvc     analyticsdomain.Service
	earningsSvc      earningsdomain.Service
	payoutSvc        payoutdomain.Service
	invoiceSvc       invoicedomain.Service
	creditSvc        creditdomain.Service
	callBillingSvc   callbillingdomain.Service
	paymentSvc       paymentdomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Authsvc      authdomain.Service
	Sessions     *session.Manager
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
	AuthzSvc     authorization.Service
	AuditSvc     auditdomain.Service

	ActorSvc         actordomain.Service
	ShareSettingsSvc sharesettingsdomain.Service
	SaleSvc          saledomain.Service
	PipelineSvc      pipelinedomain.Service
	AnalyticsSvc     analyticsdomain.Service
	EarningsSvc      earningsdomain.Service
	PayoutSvc        payoutdomain.Service
	InvoiceSvc       invoicedomain.Service
	CreditSvc        creditdomain.Service
	CallBillingSvc   callbillingdomain.Service
	PaymentSvc       paymentdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		log:              p.Log.Named("http.server"),
		authsvc:          p.Authsvc,
		sessions:         p.Sessions,
		loginLimiter:     p.LoginLimiter,
		authzSvc:         p.AuthzSvc,
		auditSvc:         p.AuditSvc,
		actorSvc:         p.ActorSvc,
		shareSettingsSvc: p.ShareSettingsSvc,
		saleSvc:          p.SaleSvc,
		pipelineSvc:      p.PipelineSvc,
		analyticsSvc:     p.AnalyticsSvc,
		earningsSvc:      p.EarningsSvc,
		payoutSvc:        p.PayoutSvc,
		invoiceSvc:       p.InvoiceSvc,
		creditSvc:        p.CreditSvc,
		callBillingSvc:   p.CallBillingSvc,
		paymentSvc:       p.PaymentSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.registerAuthRoutes()
	s.registerAPIRoutes()
	s.registerAdminRoutes()
	s.registerWebhookRoutes()
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Actors --------
	api.GET("/actors", s.authorizeOrgAction(authorization.ObjectActor, authorization.ActionActorView), s.ListActors)
	api.GET("/actors/:id", s.authorizeOrgAction(authorization.ObjectActor, authorization.ActionActorView), s.GetActor)
	api.GET("/actors/:id/team", s.authorizeOrgAction(authorization.ObjectActor, authorization.ActionActorView), s.GetActorTeam)

	// -------- Share settings --------
	api.GET("/share-settings", s.authorizeOrgAction(authorization.ObjectShareSettings, authorization.ActionShareSettingsView), s.GetShareSettings)

	// -------- Sales --------
	api.GET("/sales", s.authorizeOrgAction(authorization.ObjectSale, authorization.ActionSaleView), s.ListSales)
	api.POST("/sales", s.authorizeOrgAction(authorization.ObjectSale, authorization.ActionSaleCreate), s.CreateSale)
	api.GET("/sales/:id", s.authorizeOrgAction(authorization.ObjectSale, authorization.ActionSaleView), s.GetSale)

	// -------- Pipeline --------
	api.GET("/companies", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyView), s.ListCompanies)
	api.POST("/companies", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyCreate), s.CreateCompany)
	api.GET("/companies/:id", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyView), s.GetCompany)
	api.PATCH("/companies/:id", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.UpdateCompany)
	api.DELETE("/companies/:id", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyDelete), s.DeleteCompany)
	api.PATCH("/companies/:id/steps/:phase", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.UpdateCompanyStep)
	api.POST("/companies/:id/contact-attempts", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.AddContactAttempt)
	api.PUT("/companies/:id/deal", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.UpdateDeal)
	api.POST("/companies/:id/checklist", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.AddChecklistItem)
	api.POST("/companies/:id/checklist/:item_id/toggle", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyUpdate), s.ToggleChecklistItem)
	api.GET("/companies/:id/history", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyView), s.GetCompanyHistory)
	api.GET("/companies/:id/activities", s.authorizeOrgAction(authorization.ObjectCompany, authorization.ActionCompanyView), s.GetCompanyActivities)

	// -------- Analytics --------
	api.GET("/analytics/overview", s.authorizeOrgAction(authorization.ObjectAnalytics, authorization.ActionAnalyticsView), s.GetAnalyticsOverview)

	// -------- Earnings --------
	api.GET("/earnings", s.authorizeOrgAction(authorization.ObjectEarnings, authorization.ActionEarningsView), s.GetEarnings)
	api.GET("/earnings/team", s.authorizeOrgAction(authorization.ObjectEarnings, authorization.ActionEarningsViewTeam), s.GetTeamEarnings)

	// -------- Invoices --------
	api.GET("/invoices", s.authorizeOrgAction(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	api.POST("/invoices", s.authorizeOrgAction(authorization.ObjectInvoice, authorization.ActionInvoiceCreate), s.CreateInvoice)
	api.GET("/invoices/:id", s.authorizeOrgAction(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoice)
	api.GET("/invoices/:id/pdf", s.authorizeOrgAction(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.RenderInvoicePDF)

	// -------- Credits --------
	api.GET("/credits/balance", s.authorizeOrgAction(authorization.ObjectCredit, authorization.ActionCreditView), s.GetCreditBalance)
	api.GET("/credits/transactions", s.authorizeOrgAction(authorization.ObjectCredit, authorization.ActionCreditView), s.ListCreditTransactions)

	// -------- Calls --------
	api.GET("/calls", s.authorizeOrgAction(authorization.ObjectCall, authorization.ActionCallView), s.ListCalls)
	api.POST("/calls", s.authorizeOrgAction(authorization.ObjectCall, authorization.ActionCallRegister), s.RegisterCall)
	api.GET("/calls/:id", s.authorizeOrgAction(authorization.ObjectCall, authorization.ActionCallView), s.GetCall)
	api.POST("/calls/:id/billing", s.authorizeOrgAction(authorization.ObjectCall, authorization.ActionCallBill), s.ProcessCallBilling)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired())

	admin.POST("/actors", s.authorizeOrgAction(authorization.ObjectActor, authorization.ActionActorCreate), s.CreateActor)
	admin.PATCH("/actors/:id", s.authorizeOrgAction(authorization.ObjectActor, authorization.ActionActorUpdate), s.UpdateActor)
	admin.PUT("/actors/:id/sponsor", s.authorizeOrgAction(authorization.ObjectActor, authorization.ActionActorUpdate), s.SetActorSponsor)

	admin.POST("/share-settings", s.authorizeOrgAction(authorization.ObjectShareSettings, authorization.ActionShareSettingsUpdate), s.CreateShareSettings)
	admin.GET("/share-settings/history", s.authorizeOrgAction(authorization.ObjectShareSettings, authorization.ActionShareSettingsUpdate), s.ListShareSettingsHistory)

	admin.POST("/sales/:id/approve", s.authorizeOrgAction(authorization.ObjectSale, authorization.ActionSaleApprove), s.ApproveSale)
	admin.POST("/sales/:id/mark-paid", s.authorizeOrgAction(authorization.ObjectSale, authorization.ActionSaleMarkPaid), s.MarkSalePaid)
	admin.POST("/sales/recompute", s.authorizeOrgAction(authorization.ObjectSale, authorization.ActionSaleRecompute), s.RecomputeSales)

	admin.GET("/payouts", s.authorizeOrgAction(authorization.ObjectPayout, authorization.ActionPayoutView), s.ListPayouts)
	admin.POST("/payouts/generate", s.authorizeOrgAction(authorization.ObjectPayout, authorization.ActionPayoutGenerate), s.GeneratePayouts)
	admin.POST("/payouts/:id/mark-paid", s.authorizeOrgAction(authorization.ObjectPayout, authorization.ActionPayoutMarkPaid), s.MarkPayoutPaid)

	admin.POST("/invoices/:id/mark-paid", s.authorizeOrgAction(authorization.ObjectInvoice, authorization.ActionInvoiceMarkPaid), s.MarkInvoicePaid)
	admin.POST("/invoices/:id/cancel", s.authorizeOrgAction(authorization.ObjectInvoice, authorization.ActionInvoiceCancel), s.CancelInvoice)

	admin.POST("/credits/grants", s.authorizeOrgAction(authorization.ObjectCredit, authorization.ActionCreditGrant), s.GrantCredits)

	admin.GET("/audit-logs", s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
}

func (s *Server) registerWebhookRoutes() {
	webhooks := s.engine.Group("/webhooks")

	webhooks.POST("/stripe", s.HandleStripeWebhook)
}
