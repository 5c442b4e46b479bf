package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListActorFilter struct {
	Role       Role
	ActiveOnly bool
	SponsorID  *snowflake.ID
}

// Repository methods return nil, nil when a row does not exist.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, actor *Actor) error
	Update(ctx context.Context, db *gorm.DB, actor *Actor) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Actor, error)
	FindByEmail(ctx context.Context, db *gorm.DB, orgID snowflake.ID, email string) (*Actor, error)
	FindByReferralCode(ctx context.Context, db *gorm.DB, orgID snowflake.ID, code string) (*Actor, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListActorFilter) ([]Actor, error)
}
