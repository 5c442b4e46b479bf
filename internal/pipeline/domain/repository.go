package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListCompanyFilter struct {
	OwnerID     *snowflake.ID
	Phase       Phase
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, company *Company) error
	Save(ctx context.Context, db *gorm.DB, company *Company) error
	SoftDelete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Company, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListCompanyFilter, scope func(*gorm.DB) (*gorm.DB, error)) ([]Company, error)

	InsertHistory(ctx context.Context, db *gorm.DB, entries []PhaseHistory) error
	ListHistory(ctx context.Context, db *gorm.DB, orgID, companyID snowflake.ID) ([]PhaseHistory, error)
	InsertActivity(ctx context.Context, db *gorm.DB, activity *Activity) error
	ListActivities(ctx context.Context, db *gorm.DB, orgID, companyID snowflake.ID, limit int) ([]Activity, error)
}
