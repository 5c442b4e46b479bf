package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/credit/domain"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Metrics  *metrics.Metrics    `optional:"true"`
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	metrics  *metrics.Metrics
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("credit.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		metrics:  p.Metrics,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Apply(ctx context.Context, tx *gorm.DB, entry domain.Entry) (domain.Transaction, bool, error) {
	if entry.OrgID == 0 {
		orgID, ok := orgcontext.OrgIDFromContext(ctx)
		if !ok {
			return domain.Transaction{}, false, domain.ErrInvalidOrganization
		}
		entry.OrgID = orgID
	}
	if entry.ActorID == 0 {
		return domain.Transaction{}, false, domain.ErrInvalidActor
	}
	if !entry.Type.Valid() {
		return domain.Transaction{}, false, domain.ErrInvalidType
	}
	if entry.Amount.IsZero() {
		return domain.Transaction{}, false, domain.ErrInvalidAmount
	}

	ref := strings.TrimSpace(entry.Reference)
	if ref != "" {
		existing, err := s.repo.FindTransactionByReference(ctx, tx, entry.OrgID, entry.Type, ref)
		if err != nil {
			return domain.Transaction{}, false, err
		}
		if existing != nil {
			return *existing, false, nil
		}
	}

	now := s.clock.Now()
	balance, err := s.repo.FindBalance(ctx, tx, entry.OrgID, entry.ActorID, true)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	if balance == nil {
		balance = &domain.Balance{
			ID:        s.genID.Generate(),
			OrgID:     entry.OrgID,
			ActorID:   entry.ActorID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.InsertBalance(ctx, tx, balance); err != nil {
			return domain.Transaction{}, false, err
		}
	}

	amount := entry.Amount.Round(2)
	balance.Balance = balance.Balance.Add(amount)
	balance.UpdatedAt = now
	if err := s.repo.UpdateBalance(ctx, tx, balance); err != nil {
		return domain.Transaction{}, false, err
	}

	txn := domain.Transaction{
		ID:           s.genID.Generate(),
		OrgID:        entry.OrgID,
		ActorID:      entry.ActorID,
		Type:         entry.Type,
		Amount:       amount,
		BalanceAfter: balance.Balance,
		Description:  strings.TrimSpace(entry.Description),
		CreatedAt:    now,
	}
	if ref != "" {
		txn.Reference = &ref
	}
	if err := s.repo.InsertTransaction(ctx, tx, &txn); err != nil {
		return domain.Transaction{}, false, err
	}
	return txn, true, nil
}

func (s *Service) TopUp(ctx context.Context, req domain.TopUpRequest) (domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	return s.credit(ctx, domain.Entry{
		ActorID:     req.ActorID,
		Type:        domain.TransactionTopUp,
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: "credit top-up",
	})
}

func (s *Service) Grant(ctx context.Context, req domain.GrantRequest) (domain.Transaction, error) {
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() {
		return domain.Transaction{}, domain.ErrForbidden
	}
	actorID, err := parseID(req.ActorID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !req.Amount.IsPositive() {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "credit grant"
	}
	txn, err := s.credit(ctx, domain.Entry{
		ActorID:     actorID,
		Type:        domain.TransactionGrant,
		Amount:      req.Amount,
		Reference:   req.Reference,
		Description: description,
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	s.audit(ctx, "credit.grant", txn.ID, map[string]any{
		"actor_id": actorID.String(),
		"amount":   txn.Amount.StringFixed(2),
	})
	return txn, nil
}

func (s *Service) Balance(ctx context.Context, actorID string) (domain.BalanceView, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.BalanceView{}, domain.ErrInvalidOrganization
	}
	id, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return domain.BalanceView{}, err
	}
	balance, err := s.repo.FindBalance(ctx, s.db, orgID, id, false)
	if err != nil {
		return domain.BalanceView{}, err
	}
	view := domain.BalanceView{ActorID: id}
	if balance != nil {
		view.Balance = balance.Balance
	}
	return view, nil
}

func (s *Service) ListTransactions(ctx context.Context, req domain.ListTransactionRequest) (domain.ListTransactionResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListTransactionResponse{}, domain.ErrInvalidOrganization
	}
	actorID, err := s.resolveActor(ctx, req.ActorID)
	if err != nil {
		return domain.ListTransactionResponse{}, err
	}

	items, err := s.repo.ListTransactions(ctx, s.db, orgID, actorID, func(q *gorm.DB) (*gorm.DB, error) {
		return pagination.Apply(q, "", req.Pagination)
	})
	if err != nil {
		return domain.ListTransactionResponse{}, err
	}
	txns, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item domain.Transaction) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListTransactionResponse{}, err
	}
	return domain.ListTransactionResponse{PageInfo: pageInfo, Transactions: txns}, nil
}

func (s *Service) credit(ctx context.Context, entry domain.Entry) (domain.Transaction, error) {
	var (
		txn     domain.Transaction
		applied bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, applied, err = s.Apply(ctx, tx, entry)
		return err
	})
	if err != nil {
		return domain.Transaction{}, err
	}
	if applied {
		s.metrics.IncCreditTransaction(string(txn.Type))
		s.log.Info("credit applied",
			zap.String("actor_id", txn.ActorID.String()),
			zap.String("type", string(txn.Type)),
			zap.String("amount", txn.Amount.StringFixed(2)),
			zap.String("balance_after", txn.BalanceAfter.StringFixed(2)),
		)
	}
	return txn, nil
}

// resolveActor defaults to the caller and keeps agents on their own balance.
func (s *Service) resolveActor(ctx context.Context, raw string) (snowflake.ID, error) {
	principal, hasPrincipal := orgcontext.PrincipalFromContext(ctx)
	if strings.TrimSpace(raw) == "" {
		if !hasPrincipal {
			return 0, domain.ErrInvalidActor
		}
		return principal.ActorID, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, err
	}
	if hasPrincipal && !principal.IsAdmin() && id != principal.ActorID {
		return 0, domain.ErrForbidden
	}
	return id, nil
}

func (s *Service) audit(ctx context.Context, action string, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "credit_transaction", id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidActor
	}
	return id, nil
}
