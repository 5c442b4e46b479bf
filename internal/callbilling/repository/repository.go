package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/callbilling/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, call *domain.Call) error {
	return db.WithContext(ctx).Create(call).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, call *domain.Call) error {
	return db.WithContext(ctx).
		Model(&domain.Call{}).
		Where("org_id = ? AND id = ?", call.OrgID, call.ID).
		Updates(map[string]any{
			"status":           call.Status,
			"started_at":       call.StartedAt,
			"ended_at":         call.EndedAt,
			"ended_reason":     call.EndedReason,
			"duration_seconds": call.DurationSeconds,
			"billed_minutes":   call.BilledMinutes,
			"cost":             call.Cost,
			"billed_at":        call.BilledAt,
			"updated_at":       call.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Call, error) {
	var call domain.Call
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1).
		Find(&call).Error
	if err != nil {
		return nil, err
	}
	if call.ID == 0 {
		return nil, nil
	}
	return &call, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListCallFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.Call, error) {
	stmt := db.WithContext(ctx).Model(&domain.Call{}).Where("org_id = ?", orgID)
	if filter.ActorID != nil {
		stmt = stmt.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if scope != nil {
		var err error
		if stmt, err = scope(stmt); err != nil {
			return nil, err
		}
	}
	var items []domain.Call
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListUnbilled(ctx context.Context, db *gorm.DB, limit int) ([]domain.Call, error) {
	var items []domain.Call
	err := db.WithContext(ctx).
		Where("billed_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
