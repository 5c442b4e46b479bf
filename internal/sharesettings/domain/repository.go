package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, settings *ShareSettings) error
	Latest(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*ShareSettings, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, limit int) ([]ShareSettings, error)
}
