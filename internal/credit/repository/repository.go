package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fyxed/internal/credit/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindBalance(ctx context.Context, db *gorm.DB, orgID, actorID snowflake.ID, forUpdate bool) (*domain.Balance, error) {
	q := db.WithContext(ctx).Where("org_id = ? AND actor_id = ?", orgID, actorID)
	if forUpdate && db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var balance domain.Balance
	err := q.Limit(1).Find(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.ID == 0 {
		return nil, nil
	}
	return &balance, nil
}

func (r *repo) InsertBalance(ctx context.Context, db *gorm.DB, balance *domain.Balance) error {
	return db.WithContext(ctx).Create(balance).Error
}

func (r *repo) UpdateBalance(ctx context.Context, db *gorm.DB, balance *domain.Balance) error {
	return db.WithContext(ctx).
		Model(&domain.Balance{}).
		Where("id = ?", balance.ID).
		Updates(map[string]any{
			"balance":    balance.Balance,
			"updated_at": balance.UpdatedAt,
		}).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Create(txn).Error
}

func (r *repo) FindTransactionByReference(ctx context.Context, db *gorm.DB, orgID snowflake.ID, txType domain.TransactionType, reference string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).
		Where("org_id = ? AND type = ? AND reference = ?", orgID, txType, reference).
		Limit(1).
		Find(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, orgID, actorID snowflake.ID, scope func(*gorm.DB) (*gorm.DB, error)) ([]domain.Transaction, error) {
	q := db.WithContext(ctx).Model(&domain.Transaction{}).Where("org_id = ? AND actor_id = ?", orgID, actorID)
	if scope != nil {
		var err error
		if q, err = scope(q); err != nil {
			return nil, err
		}
	}
	var items []domain.Transaction
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
