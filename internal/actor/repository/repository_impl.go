package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/actor/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, actor *domain.Actor) error {
	return db.WithContext(ctx).Create(actor).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, actor *domain.Actor) error {
	return db.WithContext(ctx).
		Model(&domain.Actor{}).
		Where("org_id = ? AND id = ?", actor.OrgID, actor.ID).
		Updates(map[string]any{
			"name":       actor.Name,
			"role":       actor.Role,
			"sponsor_id": actor.SponsorID,
			"active":     actor.Active,
			"updated_at": actor.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Actor, error) {
	return r.first(ctx, db, "org_id = ? AND id = ?", orgID, id)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, orgID snowflake.ID, email string) (*domain.Actor, error) {
	return r.first(ctx, db, "org_id = ? AND email = ?", orgID, strings.ToLower(strings.TrimSpace(email)))
}

func (r *repo) FindByReferralCode(ctx context.Context, db *gorm.DB, orgID snowflake.ID, code string) (*domain.Actor, error) {
	return r.first(ctx, db, "org_id = ? AND referral_code = ?", orgID, strings.TrimSpace(code))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListActorFilter) ([]domain.Actor, error) {
	stmt := db.WithContext(ctx).Model(&domain.Actor{}).Where("org_id = ?", orgID)
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if filter.SponsorID != nil {
		stmt = stmt.Where("sponsor_id = ?", *filter.SponsorID)
	}

	var actors []domain.Actor
	if err := stmt.Order("created_at ASC, id ASC").Find(&actors).Error; err != nil {
		return nil, err
	}
	return actors, nil
}

func (r *repo) first(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Actor, error) {
	var actor domain.Actor
	err := db.WithContext(ctx).Where(query, args...).First(&actor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &actor, nil
}
