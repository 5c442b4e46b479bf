package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	"github.com/smallbiznis/fyxed/internal/earnings/domain"
	"github.com/smallbiznis/fyxed/internal/orgcontext"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Sales  saledomain.Repository
	Actors actordomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	sales  saledomain.Repository
	actors actordomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("earnings.service"),
		sales:  p.Sales,
		actors: p.Actors,
	}
}

func (s *Service) CalculateEarnings(ctx context.Context, actorID string, start, end time.Time) (domain.Earnings, error) {
	orgID, actor, err := s.resolve(ctx, actorID, start, end)
	if err != nil {
		return domain.Earnings{}, err
	}

	sales, err := s.sales.ListSettled(ctx, s.db, orgID, saledomain.SettledFilter{
		InvolvingID: &actor.ID,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return domain.Earnings{}, err
	}

	earnings := domain.Sum(actor.ID, sales)
	earnings.Start, earnings.End = start.UTC(), end.UTC()
	return earnings, nil
}

func (s *Service) CalculateTeamEarnings(ctx context.Context, leaderID string, start, end time.Time) (domain.TeamEarnings, error) {
	orgID, leader, err := s.resolve(ctx, leaderID, start, end)
	if err != nil {
		return domain.TeamEarnings{}, err
	}

	own, err := s.sales.ListSettled(ctx, s.db, orgID, saledomain.SettledFilter{
		InvolvingID: &leader.ID,
		Start:       start,
		End:         end,
	})
	if err != nil {
		return domain.TeamEarnings{}, err
	}
	members, err := s.actors.List(ctx, s.db, orgID, actordomain.ListActorFilter{SponsorID: &leader.ID})
	if err != nil {
		return domain.TeamEarnings{}, err
	}

	memberIDs := make([]snowflake.ID, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
	}
	teamSales, err := s.sales.ListSettled(ctx, s.db, orgID, saledomain.SettledFilter{
		SellerIDs: memberIDs,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return domain.TeamEarnings{}, err
	}

	out := domain.TeamEarnings{
		Leader:          domain.Sum(leader.ID, own),
		Members:         make([]domain.MemberEarnings, 0, len(members)),
		TeamSalesVolume: decimal.Zero,
		TeamOverrides:   decimal.Zero,
	}
	out.Leader.Start, out.Leader.End = start.UTC(), end.UTC()

	volume, overrides := decimal.Zero, decimal.Zero
	for _, sale := range teamSales {
		out.TeamSalesCount++
		volume = volume.Add(sale.Amount)
		if sale.LeaderID != nil && *sale.LeaderID == leader.ID {
			overrides = overrides.Add(sale.LeaderShare)
		}
	}
	out.TeamSalesVolume = volume.Round(2)
	out.TeamOverrides = overrides.Round(2)

	for _, member := range members {
		out.Members = append(out.Members, domain.Member(member.ID, member.Name, leader.ID, teamSales))
	}
	return out, nil
}

func (s *Service) resolve(ctx context.Context, rawID string, start, end time.Time) (snowflake.ID, actordomain.Actor, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return 0, actordomain.Actor{}, domain.ErrInvalidOrganization
	}
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0, actordomain.Actor{}, domain.ErrInvalidTimeRange
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return 0, actordomain.Actor{}, domain.ErrInvalidID
	}
	if principal, ok := orgcontext.PrincipalFromContext(ctx); ok && !principal.IsAdmin() && principal.ActorID != id {
		return 0, actordomain.Actor{}, domain.ErrForbidden
	}

	actor, err := s.actors.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return 0, actordomain.Actor{}, err
	}
	if actor == nil {
		return 0, actordomain.Actor{}, domain.ErrNotFound
	}
	return orgID, *actor, nil
}
