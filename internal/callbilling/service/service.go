package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/config"
	creditdomain "github.com/smallbiznis/fyxed/internal/credit/domain"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultReconcileLimit = 100

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Credits creditdomain.Service
	Client  domain.CallsClient             `optional:"true"`
	Config  *config.CommissionConfigHolder `optional:"true"`
	Metrics *metrics.Metrics               `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	credits creditdomain.Service
	client  domain.CallsClient
	config  *config.CommissionConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("callbilling.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		credits: p.Credits,
		client:  p.Client,
		config:  p.Config,
		metrics: p.Metrics,
	}
}

func (s *Service) RegisterCall(ctx context.Context, req domain.RegisterCallRequest) (domain.Call, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Call{}, domain.ErrInvalidOrganization
	}
	principal, hasPrincipal := orgcontext.PrincipalFromContext(ctx)

	var actorID snowflake.ID
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.Call{}, domain.ErrInvalidActor
		}
		actorID = id
	} else if hasPrincipal {
		actorID = principal.ActorID
	}
	if actorID == 0 {
		return domain.Call{}, domain.ErrInvalidActor
	}
	if hasPrincipal && !principal.IsAdmin() && actorID != principal.ActorID {
		return domain.Call{}, domain.ErrForbidden
	}

	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return domain.Call{}, domain.ErrInvalidExternalID
	}

	now := s.clock.Now()
	call := domain.Call{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		ActorID:    actorID,
		ExternalID: externalID,
		ToNumber:   strings.TrimSpace(req.ToNumber),
		Status:     domain.StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if raw := strings.TrimSpace(req.CompanyID); raw != "" {
		companyID, err := parseID(raw)
		if err != nil {
			return domain.Call{}, err
		}
		call.CompanyID = &companyID
	}

	if err := s.repo.Insert(ctx, s.db, &call); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Call{}, domain.ErrDuplicateCall
		}
		return domain.Call{}, err
	}
	s.log.Info("call registered",
		zap.String("call_id", call.ID.String()),
		zap.String("external_id", call.ExternalID),
		zap.String("actor_id", call.ActorID.String()),
	)
	return call, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Call, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Call{}, domain.ErrInvalidOrganization
	}
	callID, err := parseID(id)
	if err != nil {
		return domain.Call{}, err
	}
	call, err := s.load(ctx, s.db, orgID, callID)
	if err != nil {
		return domain.Call{}, err
	}
	return call, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCallRequest) (domain.ListCallResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListCallResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListCallFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return domain.ListCallResponse{}, domain.ErrInvalidStatus
		}
	}
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListCallResponse{}, domain.ErrInvalidActor
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
		return domain.ListCallResponse{}, err
	}
	calls, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item domain.Call) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return domain.ListCallResponse{}, err
	}
	return domain.ListCallResponse{PageInfo: pageInfo, Calls: calls}, nil
}

func (s *Service) ProcessCallBilling(ctx context.Context, req domain.CallEndedRequest) (domain.Call, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Call{}, domain.ErrInvalidOrganization
	}
	callID, err := parseID(req.CallID)
	if err != nil {
		return domain.Call{}, err
	}
	charge, err := domain.ComputeCharge(req.StartedAt, req.EndedAt, s.config.Get().CallRate())
	if err != nil {
		return domain.Call{}, err
	}

	var (
		billed      domain.Call
		newlyBilled bool
		charged     bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		call, err := s.load(ctx, tx, orgID, callID)
		if err != nil {
			return err
		}
		if call.Billed() {
			billed = call
			return nil
		}

		now := s.clock.Now()
		startedAt := req.StartedAt.UTC()
		endedAt := req.EndedAt.UTC()
		call.Status = domain.StatusEnded
		call.StartedAt = &startedAt
		call.EndedAt = &endedAt
		call.EndedReason = strings.TrimSpace(req.EndedReason)
		call.DurationSeconds = charge.DurationSeconds
		call.BilledMinutes = charge.Minutes
		call.Cost = charge.Cost
		call.BilledAt = &now
		call.UpdatedAt = now

		if charge.Cost.IsPositive() {
			_, applied, err := s.credits.Apply(ctx, tx, creditdomain.Entry{
				OrgID:       call.OrgID,
				ActorID:     call.ActorID,
				Type:        creditdomain.TransactionCallCharge,
				Amount:      charge.Cost.Neg(),
				Reference:   call.ID.String(),
				Description: "call " + call.ExternalID,
			})
			if err != nil {
				return err
			}
			charged = applied
		}
		if err := s.repo.Update(ctx, tx, &call); err != nil {
			return err
		}
		billed = call
		newlyBilled = true
		return nil
	})
	if err != nil {
		return domain.Call{}, err
	}

	if newlyBilled {
		s.metrics.ObserveCallBilled(billed.EndedReason, billed.Cost)
		if charged {
			s.metrics.IncCreditTransaction(string(creditdomain.TransactionCallCharge))
		}
		s.log.Info("call billed",
			zap.String("call_id", billed.ID.String()),
			zap.Int64("minutes", billed.BilledMinutes),
			zap.String("cost", billed.Cost.StringFixed(2)),
		)
	}
	return billed, nil
}

func (s *Service) Reconcile(ctx context.Context, limit int) (domain.ReconcileResult, error) {
	if s.client == nil {
		return domain.ReconcileResult{}, domain.ErrCallsAPIDisabled
	}
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	pending, err := s.repo.ListUnbilled(ctx, s.db, limit)
	if err != nil {
		return domain.ReconcileResult{}, err
	}

	var (
		result   domain.ReconcileResult
		firstErr error
	)
	for _, call := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++
		remote, err := s.client.GetCall(ctx, call.ExternalID)
		if err != nil {
			if errors.Is(err, domain.ErrCallsAPIDisabled) {
				return result, err
			}
			result.Failed++
			if firstErr == nil {
				firstErr = err
			}
			s.log.Warn("call lookup failed", zap.String("call_id", call.ID.String()), zap.Error(err))
			continue
		}
		if !remote.Ended() {
			continue
		}

		orgCtx := orgcontext.WithOrgID(ctx, int64(call.OrgID))
		_, err = s.ProcessCallBilling(orgCtx, domain.CallEndedRequest{
			CallID:      call.ID.String(),
			StartedAt:   *remote.StartedAt,
			EndedAt:     *remote.EndedAt,
			EndedReason: remote.EndedReason,
		})
		if err != nil {
			result.Failed++
			if firstErr == nil {
				firstErr = err
			}
			s.log.Warn("call billing failed", zap.String("call_id", call.ID.String()), zap.Error(err))
			continue
		}
		result.Billed++
	}
	return result, firstErr
}

func (s *Service) load(ctx context.Context, conn *gorm.DB, orgID, id snowflake.ID) (domain.Call, error) {
	call, err := s.repo.FindByID(ctx, conn, orgID, id)
	if err != nil {
		return domain.Call{}, err
	}
	if call == nil {
		return domain.Call{}, domain.ErrNotFound
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() && call.ActorID != principal.ActorID {
		return domain.Call{}, domain.ErrNotFound
	}
	return *call, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
