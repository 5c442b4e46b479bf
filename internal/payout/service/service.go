package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	earningsdomain "github.com/smallbiznis/fyxed/internal/earnings/domain"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/payout/domain"
	"github.com/smallbiznis/fyxed/pkg/db"
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
	Actors   actordomain.Repository
	Earnings earningsdomain.Service
	Config   *config.CommissionConfigHolder `optional:"true"`
	Metrics  *metrics.Metrics               `optional:"true"`
	AuditSvc auditdomain.Service            `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	actors   actordomain.Repository
	earnings earningsdomain.Service
	config   *config.CommissionConfigHolder
	metrics  *metrics.Metrics
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payout.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		actors:   p.Actors,
		earnings: p.Earnings,
		config:   p.Config,
		metrics:  p.Metrics,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Generate(ctx context.Context, month string) (domain.GenerateResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.GenerateResult{}, domain.ErrInvalidOrganization
	}
	month = strings.TrimSpace(month)
	start, end, err := domain.MonthRange(month)
	if err != nil {
		return domain.GenerateResult{}, err
	}

	actors, err := s.actors.List(ctx, s.db, orgID, actordomain.ListActorFilter{ActiveOnly: true})
	if err != nil {
		return domain.GenerateResult{}, err
	}
	existing, err := s.repo.ActorsWithPayout(ctx, s.db, orgID, month)
	if err != nil {
		return domain.GenerateResult{}, err
	}

	cfg := s.config.Get()
	floor := cfg.PayoutFloor()
	now := s.clock.Now()
	result := domain.GenerateResult{Month: month, Created: []domain.Payout{}}

	for _, actor := range actors {
		if _, ok := existing[actor.ID]; ok {
			result.Skipped++
			continue
		}
		earnings, err := s.earnings.CalculateEarnings(ctx, actor.ID.String(), start, end)
		if err != nil {
			return domain.GenerateResult{}, err
		}
		if !earnings.Total.IsPositive() || earnings.Total.LessThan(floor) {
			result.Skipped++
			continue
		}
		result.Created = append(result.Created, domain.Payout{
			ID:            s.genID.Generate(),
			OrgID:         orgID,
			ActorID:       actor.ID,
			Month:         month,
			OwnSales:      earnings.OwnSales,
			Overrides:     earnings.Overrides,
			Amount:        earnings.Total,
			Currency:      cfg.Currency,
			SalesCount:    earnings.SalesCount,
			OverrideCount: earnings.OverrideCount,
			Status:        domain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range result.Created {
			if err := s.repo.Insert(ctx, tx, &result.Created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.log.Warn("concurrent payout generation detected", zap.String("month", month))
		}
		return domain.GenerateResult{}, err
	}

	s.metrics.AddPayoutsGenerated(len(result.Created))
	s.log.Info("payouts generated",
		zap.String("org_id", orgID.String()),
		zap.String("month", month),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", result.Skipped),
	)
	s.audit(ctx, "payout.generate", month, map[string]any{
		"created": len(result.Created),
		"skipped": result.Skipped,
	})
	return result, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPayoutRequest) (domain.ListPayoutResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListPayoutResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListPayoutFilter{}
	if month := strings.TrimSpace(req.Month); month != "" {
		if _, _, err := domain.MonthRange(month); err != nil {
			return domain.ListPayoutResponse{}, err
		}
		filter.Month = month
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if filter.Status != domain.StatusPending && filter.Status != domain.StatusPaid {
			return domain.ListPayoutResponse{}, domain.ErrInvalidStatus
		}
	}
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListPayoutResponse{}, err
		}
		filter.ActorID = &id
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() {
		own := principal.ActorID
		filter.ActorID = &own
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, func(q *gorm.DB) (*gorm.DB, error) {
		return pagination.Apply(q, "", req.Pagination)
	})
	if err != nil {
		return domain.ListPayoutResponse{}, err
	}
	payouts, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item domain.Payout) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListPayoutResponse{}, err
	}
	return domain.ListPayoutResponse{PageInfo: pageInfo, Payouts: payouts}, nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (domain.Payout, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Payout{}, domain.ErrInvalidOrganization
	}
	payoutID, err := parseID(id)
	if err != nil {
		return domain.Payout{}, err
	}

	payout, err := s.repo.FindByID(ctx, s.db, orgID, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if payout == nil {
		return domain.Payout{}, domain.ErrNotFound
	}
	if payout.Status == domain.StatusPaid {
		return domain.Payout{}, domain.ErrAlreadyPaid
	}

	now := s.clock.Now()
	payout.Status = domain.StatusPaid
	payout.PaidAt = &now
	payout.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, payout); err != nil {
		return domain.Payout{}, err
	}
	s.audit(ctx, "payout.mark_paid", payout.ID.String(), map[string]any{
		"actor_id": payout.ActorID.String(),
		"amount":   payout.Amount.StringFixed(2),
	})
	return *payout, nil
}

func (s *Service) audit(ctx context.Context, action string, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, action, "payout", targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
