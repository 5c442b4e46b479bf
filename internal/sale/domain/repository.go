package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListSaleFilter struct {
	Status      Status
	Source      Source
	SellerID    *snowflake.ID
	InvolvingID *snowflake.ID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// SettledFilter selects approved or paid sales created within [Start, End].
type SettledFilter struct {
	InvolvingID *snowflake.ID
	SellerIDs   []snowflake.ID
	Start       time.Time
	End         time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sale *Sale) error
	Update(ctx context.Context, db *gorm.DB, sale *Sale) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Sale, error)
	FindByExternalRef(ctx context.Context, db *gorm.DB, orgID snowflake.ID, source Source, ref string) (*Sale, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListSaleFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]Sale, error)
	ListSettled(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter SettledFilter) ([]Sale, error)
	ListBatch(ctx context.Context, db *gorm.DB, orgID snowflake.ID, afterID snowflake.ID, limit int) ([]Sale, error)
}
