package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, settings *domain.ShareSettings) error {
	return db.WithContext(ctx).Create(settings).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.ShareSettings, error) {
	var settings domain.ShareSettings
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC, id DESC").
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]domain.ShareSettings, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	var out []domain.ShareSettings
	if err := stmt.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
