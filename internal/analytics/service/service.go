package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/analytics/domain"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Companies pipelinedomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	companies pipelinedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("analytics.service"),
		companies: p.Companies,
	}
}

func (s *Service) Overview(ctx context.Context, req domain.OverviewRequest) (domain.Overview, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Overview{}, domain.ErrInvalidOrganization
	}
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return domain.Overview{}, domain.ErrInvalidTimeRange
	}

	filter := pipelinedomain.ListCompanyFilter{CreatedFrom: req.From, CreatedTo: req.To}
	if raw := strings.TrimSpace(req.OwnerID); raw != "" {
		ownerID, err := snowflake.ParseString(raw)
		if err != nil || ownerID == 0 {
			return domain.Overview{}, domain.ErrInvalidOwner
		}
		filter.OwnerID = &ownerID
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() {
		own := principal.ActorID
		filter.OwnerID = &own
	}

	companies, err := s.companies.List(ctx, s.db, orgID, filter, nil)
	if err != nil {
		return domain.Overview{}, err
	}
	s.log.Debug("overview computed", zap.Int("companies", len(companies)))
	return domain.ComputeOverview(companies), nil
}
