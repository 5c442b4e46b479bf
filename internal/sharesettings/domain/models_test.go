package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestSharesValidate(t *testing.T) {
	cases := []struct {
		name   string
		shares Shares
		want   error
	}{
		{name: "defaults", shares: DefaultShares()},
		{name: "boundaries", shares: Shares{Seller: d("1"), Leader: d("0"), Sponsor: d("0"), FyxedMin: d("1")}},
		{name: "negative", shares: Shares{Seller: d("-0.1"), Leader: d("0"), Sponsor: d("0"), FyxedMin: d("0")}, want: ErrShareOutOfRange},
		{name: "above one", shares: Shares{Seller: d("0.5"), Leader: d("0"), Sponsor: d("0"), FyxedMin: d("1.2")}, want: ErrShareOutOfRange},
		{name: "sum exceeded", shares: Shares{Seller: d("0.6"), Leader: d("0.3"), Sponsor: d("0.2"), FyxedMin: d("0")}, want: ErrShareSumExceeded},
		{name: "fyxed min outside sum", shares: Shares{Seller: d("0.5"), Leader: d("0.25"), Sponsor: d("0.25"), FyxedMin: d("0.9")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.shares.Validate(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
