package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed model.conf
var modelText string

const (
	ObjectActor         = "actor"
	ObjectShareSettings = "share_settings"
	ObjectSale          = "sale"
	ObjectCompany       = "company"
	ObjectAnalytics     = "analytics"
	ObjectEarnings      = "earnings"
	ObjectPayout        = "payout"
	ObjectInvoice       = "invoice"
	ObjectCredit        = "credit"
	ObjectCall          = "call"
	ObjectAuditLog      = "audit_log"
)

const (
	ActionActorView   = "actor.view"
	ActionActorCreate = "actor.create"
	ActionActorUpdate = "actor.update"

	ActionShareSettingsView   = "share_settings.view"
	ActionShareSettingsUpdate = "share_settings.update"

	ActionSaleView      = "sale.view"
	ActionSaleCreate    = "sale.create"
	ActionSaleApprove   = "sale.approve"
	ActionSaleMarkPaid  = "sale.mark_paid"
	ActionSaleRecompute = "sale.recompute"

	ActionCompanyView   = "company.view"
	ActionCompanyCreate = "company.create"
	ActionCompanyUpdate = "company.update"
	ActionCompanyDelete = "company.delete"

	ActionAnalyticsView = "analytics.view"

	ActionEarningsView     = "earnings.view"
	ActionEarningsViewTeam = "earnings.view_team"

	ActionPayoutView     = "payout.view"
	ActionPayoutGenerate = "payout.generate"
	ActionPayoutMarkPaid = "payout.mark_paid"

	ActionInvoiceView     = "invoice.view"
	ActionInvoiceCreate   = "invoice.create"
	ActionInvoiceMarkPaid = "invoice.mark_paid"
	ActionInvoiceCancel   = "invoice.cancel"

	ActionCreditView  = "credit.view"
	ActionCreditGrant = "credit.grant"

	ActionCallView     = "call.view"
	ActionCallRegister = "call.register"
	ActionCallBill     = "call.bill"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer builds an in-memory enforcer seeded with the role policies.
func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	principal, ok := orgcontext.PrincipalFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	allowed, err := s.enforcer.Enforce(subject(principal.Role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", object, map[string]any{
		"object": object,
		"action": action,
	}); err != nil {
		s.log.Warn("failed to audit denied authorization", zap.Error(err))
	}
}

func subject(role string) string {
	return "role:" + strings.ToLower(strings.TrimSpace(role))
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Agent permissions
		{"role:agent", ObjectActor, ActionActorView},
		{"role:agent", ObjectShareSettings, ActionShareSettingsView},
		{"role:agent", ObjectSale, ActionSaleView},
		{"role:agent", ObjectSale, ActionSaleCreate},
		{"role:agent", ObjectCompany, ActionCompanyView},
		{"role:agent", ObjectCompany, ActionCompanyCreate},
		{"role:agent", ObjectCompany, ActionCompanyUpdate},
		{"role:agent", ObjectCompany, ActionCompanyDelete},
		{"role:agent", ObjectAnalytics, ActionAnalyticsView},
		{"role:agent", ObjectEarnings, ActionEarningsView},
		{"role:agent", ObjectEarnings, ActionEarningsViewTeam},
		{"role:agent", ObjectInvoice, ActionInvoiceView},
		{"role:agent", ObjectInvoice, ActionInvoiceCreate},
		{"role:agent", ObjectCredit, ActionCreditView},
		{"role:agent", ObjectCall, ActionCallView},
		{"role:agent", ObjectCall, ActionCallRegister},

		// Admin permissions
		{"role:admin", ObjectActor, ActionActorCreate},
		{"role:admin", ObjectActor, ActionActorUpdate},
		{"role:admin", ObjectShareSettings, ActionShareSettingsUpdate},
		{"role:admin", ObjectSale, ActionSaleApprove},
		{"role:admin", ObjectSale, ActionSaleMarkPaid},
		{"role:admin", ObjectSale, ActionSaleRecompute},
		{"role:admin", ObjectPayout, ActionPayoutView},
		{"role:admin", ObjectPayout, ActionPayoutGenerate},
		{"role:admin", ObjectPayout, ActionPayoutMarkPaid},
		{"role:admin", ObjectInvoice, ActionInvoiceMarkPaid},
		{"role:admin", ObjectInvoice, ActionInvoiceCancel},
		{"role:admin", ObjectCredit, ActionCreditGrant},
		{"role:admin", ObjectCall, ActionCallBill},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return err
	}
	_, err := enforcer.AddGroupingPolicy("role:admin", "role:agent")
	return err
}
