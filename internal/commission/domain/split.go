package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	actordomain "github.com/smallbiznis/fyxed/internal/actor/domain"
	sharedomain "github.com/smallbiznis/fyxed/internal/sharesettings/domain"
)

// Hierarchy is the seller plus at most two referral hops above it.
type Hierarchy struct {
	Seller  actordomain.Actor
	Leader  *actordomain.Actor
	Sponsor *actordomain.Actor
}

// Split is the outcome of dividing a sale amount. The four shares sum to the
// amount unless FloorApplied is set, in which case FyxedShare was raised to the
// house minimum and the total exceeds the amount.
type Split struct {
	SellerID     snowflake.ID    `json:"seller_id"`
	LeaderID     *snowflake.ID   `json:"leader_id,omitempty"`
	SponsorID    *snowflake.ID   `json:"sponsor_id,omitempty"`
	SellerShare  decimal.Decimal `json:"seller_share"`
	LeaderShare  decimal.Decimal `json:"leader_share"`
	SponsorShare decimal.Decimal `json:"sponsor_share"`
	FyxedShare   decimal.Decimal `json:"fyxed_share"`
	FloorApplied bool            `json:"floor_applied"`
}

func (s Split) Total() decimal.Decimal {
	return s.SellerShare.Add(s.LeaderShare).Add(s.SponsorShare).Add(s.FyxedShare)
}

// Engine computes the split for a sale made by sellerID.
type Engine interface {
	Compute(ctx context.Context, amount decimal.Decimal, sellerID snowflake.ID) (Split, error)
}

var (
	ErrNegativeAmount = errors.New("negative_amount")
	ErrSellerNotFound = errors.New("seller_not_found")
)

const moneyPlaces = 2

// ComputeShares splits amount between the hierarchy and the house.
// Leader and sponsor shares are only paid when that party exists; the unpaid
// fraction stays with the house. The house share never drops below
// amount*FyxedMin, and raising it does not reduce any other share.
func ComputeShares(amount decimal.Decimal, h Hierarchy, shares sharedomain.Shares) (Split, error) {
	if amount.IsNegative() {
		return Split{}, ErrNegativeAmount
	}

	sellerShare := amount.Mul(shares.Seller)
	leaderShare := decimal.Zero
	sponsorShare := decimal.Zero

	split := Split{SellerID: h.Seller.ID}
	if h.Leader != nil {
		leaderShare = amount.Mul(shares.Leader)
		leaderID := h.Leader.ID
		split.LeaderID = &leaderID
	}
	if h.Sponsor != nil {
		sponsorShare = amount.Mul(shares.Sponsor)
		sponsorID := h.Sponsor.ID
		split.SponsorID = &sponsorID
	}

	fyxedShare := amount.Sub(sellerShare.Add(leaderShare).Add(sponsorShare))
	if minFyxed := amount.Mul(shares.FyxedMin); fyxedShare.LessThan(minFyxed) {
		fyxedShare = minFyxed
		split.FloorApplied = true
	}

	split.SellerShare = sellerShare.Round(moneyPlaces)
	split.LeaderShare = leaderShare.Round(moneyPlaces)
	split.SponsorShare = sponsorShare.Round(moneyPlaces)
	split.FyxedShare = fyxedShare.Round(moneyPlaces)
	return split, nil
}
