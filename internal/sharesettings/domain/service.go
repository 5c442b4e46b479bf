package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateShareSettingsRequest struct {
	Seller   decimal.Decimal
	Leader   decimal.Decimal
	Sponsor  decimal.Decimal
	FyxedMin decimal.Decimal
}

type Service interface {
	// Current returns the latest version, or DefaultShares when none exists.
	Current(ctx context.Context) (Shares, error)
	Create(ctx context.Context, req CreateShareSettingsRequest) (ShareSettings, error)
	History(ctx context.Context, limit int) ([]ShareSettings, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrShareOutOfRange     = errors.New("share_out_of_range")
	ErrShareSumExceeded    = errors.New("share_sum_exceeded")
)
