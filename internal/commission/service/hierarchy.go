package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/commission/domain"
	"gorm.io/gorm"
)

// HierarchyResolver walks exactly two sponsor hops above a seller.
type HierarchyResolver struct {
	db     *gorm.DB
	actors actordomain.Repository
}

func NewHierarchyResolver(db *gorm.DB, actors actordomain.Repository) *HierarchyResolver {
	return &HierarchyResolver{db: db, actors: actors}
}

func (r *HierarchyResolver) Resolve(ctx context.Context, orgID, sellerID snowflake.ID) (domain.Hierarchy, error) {
	seller, err := r.actors.FindByID(ctx, r.db, orgID, sellerID)
	if err != nil {
		return domain.Hierarchy{}, err
	}
	if seller == nil {
		return domain.Hierarchy{}, domain.ErrSellerNotFound
	}

	h := domain.Hierarchy{Seller: *seller}
	if h.Leader, err = r.parent(ctx, orgID, seller); err != nil {
		return domain.Hierarchy{}, err
	}
	if h.Leader == nil {
		return h, nil
	}
	if h.Sponsor, err = r.parent(ctx, orgID, h.Leader); err != nil {
		return domain.Hierarchy{}, err
	}
	return h, nil
}

func (r *HierarchyResolver) parent(ctx context.Context, orgID snowflake.ID, actor *actordomain.Actor) (*actordomain.Actor, error) {
	if actor.SponsorID == nil {
		return nil, nil
	}
	return r.actors.FindByID(ctx, r.db, orgID, *actor.SponsorID)
}
