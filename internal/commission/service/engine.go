package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/commission/domain"
	"github.com/smallbiznis/fyxed/internal/observability/metrics"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	sharedomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidOrganization = sharedomain.ErrInvalidOrganization

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Actors   actordomain.Repository
	Settings sharedomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Engine struct {
	log      *zap.Logger
	resolver *HierarchyResolver
	settings sharedomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Engine {
	return &Engine{
		log:      p.Log.Named("commission.engine"),
		resolver: NewHierarchyResolver(p.DB, p.Actors),
		settings: p.Settings,
		metrics:  p.Metrics,
	}
}

// Compute resolves the seller's hierarchy and the current shares once, then
// delegates to ComputeShares.
func (e *Engine) Compute(ctx context.Context, amount decimal.Decimal, sellerID snowflake.ID) (domain.Split, error) {
	if amount.IsNegative() {
		return domain.Split{}, domain.ErrNegativeAmount
	}
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Split{}, ErrInvalidOrganization
	}

	hierarchy, err := e.resolver.Resolve(ctx, orgID, sellerID)
	if err != nil {
		return domain.Split{}, err
	}
	shares, err := e.settings.Current(ctx)
	if err != nil {
		return domain.Split{}, err
	}

	split, err := domain.ComputeShares(amount, hierarchy, shares)
	if err != nil {
		return domain.Split{}, err
	}
	e.metrics.IncCommissionComputed(split.FloorApplied)
	return split, nil
}
