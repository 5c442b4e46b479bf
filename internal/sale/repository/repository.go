package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/sale/domain"
	"gorm.io/gorm"
)

var settledStatuses = []domain.Status{domain.StatusApproved, domain.StatusPaid}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	return db.WithContext(ctx).Create(sale).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	return db.WithContext(ctx).
		Model(&domain.Sale{}).
		Where("org_id = ? AND id = ?", sale.OrgID, sale.ID).
		Updates(map[string]any{
			"leader_id":     sale.LeaderID,
			"sponsor_id":    sale.SponsorID,
			"seller_share":  sale.SellerShare,
			"leader_share":  sale.LeaderShare,
			"sponsor_share": sale.SponsorShare,
			"fyxed_share":   sale.FyxedShare,
			"floor_applied": sale.FloorApplied,
			"status":        sale.Status,
			"approved_at":   sale.ApprovedAt,
			"paid_at":       sale.PaidAt,
			"updated_at":    sale.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Sale, error) {
	return r.first(ctx, db, "org_id = ? AND id = ?", orgID, id)
}

func (r *repo) FindByExternalRef(ctx context.Context, db *gorm.DB, orgID snowflake.ID, source domain.Source, ref string) (*domain.Sale, error) {
	return r.first(ctx, db, "org_id = ? AND source = ? AND external_ref = ?", orgID, source, ref)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListSaleFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.Sale, error) {
	stmt := db.WithContext(ctx).Model(&domain.Sale{}).Where("org_id = ?", orgID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		stmt = stmt.Where("source = ?", filter.Source)
	}
	if filter.SellerID != nil {
		stmt = stmt.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.InvolvingID != nil {
		id := *filter.InvolvingID
		stmt = stmt.Where("(seller_id = ? OR leader_id = ? OR sponsor_id = ?)", id, id, id)
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
	}

	var sales []domain.Sale
	if err := stmt.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) ListSettled(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.SettledFilter) ([]domain.Sale, error) {
	stmt := db.WithContext(ctx).Model(&domain.Sale{}).
		Where("org_id = ?", orgID).
		Where("status IN ?", settledStatuses).
		Where("created_at >= ? AND created_at <= ?", filter.Start.UTC(), filter.End.UTC())

	if filter.InvolvingID != nil {
		id := *filter.InvolvingID
		stmt = stmt.Where("(seller_id = ? OR leader_id = ? OR sponsor_id = ?)", id, id, id)
	}
	if filter.SellerIDs != nil {
		if len(filter.SellerIDs) == 0 {
			return nil, nil
		}
		stmt = stmt.Where("seller_id IN ?", filter.SellerIDs)
	}

	var sales []domain.Sale
	if err := stmt.Order("created_at ASC, id ASC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) ListBatch(ctx context.Context, db *gorm.DB, orgID snowflake.ID, afterID snowflake.ID, limit int) ([]domain.Sale, error) {
	var sales []domain.Sale
	err := db.WithContext(ctx).
		Where("org_id = ? AND id > ?", orgID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repo) first(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Sale, error) {
	var sale domain.Sale
	err := db.WithContext(ctx).Where(query, args...).First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}
