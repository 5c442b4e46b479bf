package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
)

type Earnings struct {
	ActorID       snowflake.ID    `json:"actor_id"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	OwnSales      decimal.Decimal `json:"own_sales"`
	Overrides     decimal.Decimal `json:"overrides"`
	Total         decimal.Decimal `json:"total"`
	SalesCount    int             `json:"sales_count"`
	OverrideCount int             `json:"override_count"`
}

type MemberEarnings struct {
	ActorID          snowflake.ID    `json:"actor_id"`
	Name             string          `json:"name"`
	SalesCount       int             `json:"sales_count"`
	SalesVolume      decimal.Decimal `json:"sales_volume"`
	OwnSales         decimal.Decimal `json:"own_sales"`
	OverrideToLeader decimal.Decimal `json:"override_to_leader"`
}

type TeamEarnings struct {
	Leader          Earnings         `json:"leader"`
	Members         []MemberEarnings `json:"members"`
	TeamSalesCount  int              `json:"team_sales_count"`
	TeamSalesVolume decimal.Decimal  `json:"team_sales_volume"`
	TeamOverrides   decimal.Decimal  `json:"team_overrides"`
}

type Service interface {
	CalculateEarnings(ctx context.Context, actorID string, start, end time.Time) (Earnings, error)
	CalculateTeamEarnings(ctx context.Context, leaderID string, start, end time.Time) (TeamEarnings, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not_found")
)

// Sum adds up what actorID earned on sales: seller shares as own sales, and
// leader or sponsor shares as overrides. Only the totals are rounded.
func Sum(actorID snowflake.ID, sales []saledomain.Sale) Earnings {
	out := Earnings{ActorID: actorID, OwnSales: decimal.Zero, Overrides: decimal.Zero}
	for _, sale := range sales {
		if !sale.Status.Settled() {
			continue
		}
		if sale.SellerID == actorID {
			out.OwnSales = out.OwnSales.Add(sale.SellerShare)
			out.SalesCount++
		}
		override := false
		if sale.LeaderID != nil && *sale.LeaderID == actorID {
			out.Overrides = out.Overrides.Add(sale.LeaderShare)
			override = true
		}
		if sale.SponsorID != nil && *sale.SponsorID == actorID {
			out.Overrides = out.Overrides.Add(sale.SponsorShare)
			override = true
		}
		if override {
			out.OverrideCount++
		}
	}
	out.Total = out.OwnSales.Add(out.Overrides).Round(2)
	out.OwnSales = out.OwnSales.Round(2)
	out.Overrides = out.Overrides.Round(2)
	return out
}

// Member breaks down one direct team member's sales for leaderID.
func Member(memberID snowflake.ID, name string, leaderID snowflake.ID, sales []saledomain.Sale) MemberEarnings {
	out := MemberEarnings{
		ActorID:          memberID,
		Name:             name,
		SalesVolume:      decimal.Zero,
		OwnSales:         decimal.Zero,
		OverrideToLeader: decimal.Zero,
	}
	for _, sale := range sales {
		if sale.SellerID != memberID || !sale.Status.Settled() {
			continue
		}
		out.SalesCount++
		out.SalesVolume = out.SalesVolume.Add(sale.Amount)
		out.OwnSales = out.OwnSales.Add(sale.SellerShare)
		if sale.LeaderID != nil && *sale.LeaderID == leaderID {
			out.OverrideToLeader = out.OverrideToLeader.Add(sale.LeaderShare)
		}
	}
	out.SalesVolume = out.SalesVolume.Round(2)
	out.OwnSales = out.OwnSales.Round(2)
	out.OverrideToLeader = out.OverrideToLeader.Round(2)
	return out
}
