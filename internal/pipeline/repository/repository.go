package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/pipeline/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Create(company).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, company *domain.Company) error {
	return db.WithContext(ctx).Save(company).Error
}

func (r *repo) SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Company{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Company, error) {
	var company domain.Company
	err := db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListCompanyFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.Company, error) {
	stmt := db.WithContext(ctx).Model(&domain.Company{}).Where("org_id = ?", orgID)
	if filter.OwnerID != nil {
		stmt = stmt.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Phase != "" {
		stmt = stmt.Where("current_phase = ?", filter.Phase)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("(LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ? OR LOWER(city) LIKE ?)", like, like, like)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", filter.CreatedTo.UTC())
	}
	if scope != nil {
		var err error
		if stmt, err = scope(stmt); err != nil {
			return nil, err
		}
	} else {
		stmt = stmt.Order("created_at ASC, id ASC")
	}

	var companies []domain.Company
	if err := stmt.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entries []domain.PhaseHistory) error {
	if len(entries) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&entries).Error
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, orgID, companyID snowflake.ID) ([]domain.PhaseHistory, error) {
	var entries []domain.PhaseHistory
	err := db.WithContext(ctx).
		Where("org_id = ? AND company_id = ?", orgID, companyID).
		Order("at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) InsertActivity(ctx context.Context, db *gorm.DB, activity *domain.Activity) error {
	return db.WithContext(ctx).Create(activity).Error
}

func (r *repo) ListActivities(ctx context.Context, db *gorm.DB, orgID, companyID snowflake.ID, limit int) ([]domain.Activity, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ? AND company_id = ?", orgID, companyID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	var activities []domain.Activity
	if err := stmt.Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
