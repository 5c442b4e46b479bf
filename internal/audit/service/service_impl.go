package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/fyxed/internal/audit/domain"
	"github.com/smallbiznis/fyxed/internal/clock"
	obslogger "github.com/smallbiznis/fyxed/internal/observability/logger"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	"github.com/smallbiznis/fyxed/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, action string, targetType string, targetID string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return auditdomain.ErrInvalidOrganization
	}

	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := datatypes.JSONMap{}
	for key, value := range metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		ActorType:  auditdomain.ActorTypeSystem,
		Action:     action,
		TargetType: targetType,
		Metadata:   payload,
		CreatedAt:  s.clock.Now(),
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok {
		actorID := principal.ActorID
		entry.ActorType = auditdomain.ActorTypeActor
		entry.ActorID = &actorID
	}
	if trimmed := strings.TrimSpace(targetID); trimmed != "" {
		entry.TargetID = &trimmed
	}
	if requestID := obslogger.RequestIDFromContext(ctx); requestID != "" {
		entry.RequestID = &requestID
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidOrganization
	}
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	filter := auditdomain.ListFilter{
		OrgID:      orgID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	}
	action := strings.TrimSpace(req.Action)
	if prefix, ok := strings.CutSuffix(action, ".*"); ok {
		if prefix == "" {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidAction
		}
		filter.ActionPrefix = prefix + "."
	} else {
		filter.Action = action
	}
	if raw := strings.TrimSpace(req.ActorID); raw != "" {
		actorID, err := snowflake.ParseString(raw)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidActorID
		}
		filter.ActorID = &actorID
	}

	items, err := s.repo.List(ctx, s.db, filter, func(q *gorm.DB) (*gorm.DB, error) {
		return pagination.Apply(q, "", req.Pagination)
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	logs, pageInfo, err := pagination.Paginate(items, req.Pagination, func(item auditdomain.AuditLog) pagination.Cursor {
		return pagination.Cursor{ID: int64(item.ID), CreatedAt: item.CreatedAt}
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}
	return auditdomain.ListAuditLogResponse{PageInfo: pageInfo, AuditLogs: logs}, nil
}
