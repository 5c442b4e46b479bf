package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/payout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payout *domain.Payout) error {
	return db.WithContext(ctx).Create(payout).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payout *domain.Payout) error {
	return db.WithContext(ctx).
		Model(&domain.Payout{}).
		Where("org_id = ? AND id = ?", payout.OrgID, payout.ID).
		Updates(map[string]any{
			"status":     payout.Status,
			"paid_at":    payout.PaidAt,
			"updated_at": payout.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Payout, error) {
	var payout domain.Payout
	err := db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *repo) ActorsWithPayout(ctx context.Context, db *gorm.DB, orgID snowflake.ID, month string) (map[snowflake.ID]struct{}, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.Payout{}).
		Where("org_id = ? AND month = ?", orgID, month).
		Pluck("actor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListPayoutFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.Payout, error) {
	stmt := db.WithContext(ctx).Model(&domain.Payout{}).Where("org_id = ?", orgID)
	if filter.Month != "" {
		stmt = stmt.Where("month = ?", filter.Month)
	}
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

	var payouts []domain.Payout
	if err := stmt.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}
