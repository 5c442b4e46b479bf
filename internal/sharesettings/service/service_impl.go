package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/internal/sharesettings/domain"
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
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("sharesettings.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Current(ctx context.Context) (domain.Shares, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Shares{}, domain.ErrInvalidOrganization
	}
	latest, err := s.repo.Latest(ctx, s.db, orgID)
	if err != nil {
		return domain.Shares{}, err
	}
	if latest == nil {
		return domain.DefaultShares(), nil
	}
	return latest.Shares(), nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateShareSettingsRequest) (domain.ShareSettings, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ShareSettings{}, domain.ErrInvalidOrganization
	}

	shares := domain.Shares{
		Seller:   req.Seller,
		Leader:   req.Leader,
		Sponsor:  req.Sponsor,
		FyxedMin: req.FyxedMin,
	}
	if err := shares.Validate(); err != nil {
		return domain.ShareSettings{}, err
	}

	settings := domain.ShareSettings{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Seller:    shares.Seller,
		Leader:    shares.Leader,
		Sponsor:   shares.Sponsor,
		FyxedMin:  shares.FyxedMin,
		CreatedAt: s.clock.Now(),
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok {
		actorID := principal.ActorID
		settings.CreatedBy = &actorID
	}

	if err := s.repo.Insert(ctx, s.db, &settings); err != nil {
		return domain.ShareSettings{}, err
	}

	if s.auditSvc != nil {
		if err := s.auditSvc.AuditLog(ctx, "share_settings.create", "share_settings", settings.ID.String(), map[string]any{
			"seller":    shares.Seller.String(),
			"leader":    shares.Leader.String(),
			"sponsor":   shares.Sponsor.String(),
			"fyxed_min": shares.FyxedMin.String(),
		}); err != nil {
			s.log.Warn("audit log failed", zap.Error(err))
		}
	}
	s.log.Info("share settings updated", zap.String("settings_id", settings.ID.String()))
	return settings, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]domain.ShareSettings, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.List(ctx, s.db, orgID, limit)
}
