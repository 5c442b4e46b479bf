package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/fyxed/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.AuditLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{}).
		Where("org_id = ?", filter.OrgID)

	if action := strings.TrimSpace(filter.Action); action != "" {
		stmt = stmt.Where("action = ?", action)
	}
	if prefix := strings.TrimSpace(filter.ActionPrefix); prefix != "" {
		stmt = stmt.Where("SUBSTR(action, 1, ?) = ?", len(prefix), prefix)
	}
	if filter.ActorID != nil {
		stmt = stmt.Where("actor_id = ?", *filter.ActorID)
	}
	if targetType := strings.TrimSpace(filter.TargetType); targetType != "" {
		stmt = stmt.Where("target_type = ?", targetType)
	}
	if targetID := strings.TrimSpace(filter.TargetID); targetID != "" {
		stmt = stmt.Where("target_id = ?", targetID)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	if scope != nil {
		var err error
		if stmt, err = scope(stmt); err != nil {
			return nil, err
		}
	}

	var logs []domain.AuditLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
