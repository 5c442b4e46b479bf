package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ? AND id = ?", invoice.OrgID, invoice.ID).
		Updates(map[string]any{
			"status":       invoice.Status,
			"paid_at":      invoice.PaidAt,
			"cancelled_at": invoice.CancelledAt,
			"updated_at":   invoice.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListInvoiceFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.Invoice, error) {
	stmt := db.WithContext(ctx).Model(&domain.Invoice{}).Where("org_id = ?", orgID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.SellerID != nil {
		stmt = stmt.Where("seller_id = ?", *filter.SellerID)
	}
	if scope != nil {
		var err error
		if stmt, err = scope(stmt); err != nil {
			return nil, err
		}
	}

	var invoices []domain.Invoice
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
