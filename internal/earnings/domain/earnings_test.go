package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	saledomain "github.com/smallbiznis/fyxed/internal/sale/domain"
	"github.com/stretchr/testify/assert"
)

func id(v snowflake.ID) *snowflake.ID { return &v }

func sale(seller snowflake.ID, leader, sponsor *snowflake.ID, status saledomain.Status, shares ...string) saledomain.Sale {
	return saledomain.Sale{
		Amount:       decimal.RequireFromString(shares[0]),
		SellerID:     seller,
		LeaderID:     leader,
		SponsorID:    sponsor,
		SellerShare:  decimal.RequireFromString(shares[1]),
		LeaderShare:  decimal.RequireFromString(shares[2]),
		SponsorShare: decimal.RequireFromString(shares[3]),
		Status:       status,
	}
}

func TestSumSeparatesOwnSalesAndOverrides(t *testing.T) {
	sales := []saledomain.Sale{
		sale(1, id(2), id(3), saledomain.StatusApproved, "1000", "500", "100", "100"),
		sale(2, id(3), nil, saledomain.StatusPaid, "200", "100", "20", "0"),
		sale(2, nil, nil, saledomain.StatusOpen, "999", "499", "0", "0"),
		sale(4, id(2), nil, saledomain.StatusPaid, "10", "5", "1", "0"),
	}

	leader := Sum(2, sales)
	assert.Equal(t, "100.00", leader.OwnSales.StringFixed(2))
	assert.Equal(t, "101.00", leader.Overrides.StringFixed(2))
	assert.Equal(t, "201.00", leader.Total.StringFixed(2))
	assert.Equal(t, 1, leader.SalesCount)
	assert.Equal(t, 2, leader.OverrideCount)

	sponsor := Sum(3, sales)
	assert.Equal(t, "0.00", sponsor.OwnSales.StringFixed(2))
	assert.Equal(t, "120.00", sponsor.Overrides.StringFixed(2))
	assert.Equal(t, 2, sponsor.OverrideCount)
}

func TestSumRoundsTotalsOnce(t *testing.T) {
	var sales []saledomain.Sale
	for i := 0; i < 3; i++ {
		sales = append(sales, sale(1, nil, nil, saledomain.StatusPaid, "0.01", "0.005", "0", "0"))
	}
	out := Sum(1, sales)
	assert.Equal(t, "0.02", out.OwnSales.StringFixed(2))
	assert.Equal(t, "0.02", out.Total.StringFixed(2))
}

func TestMemberBreakdown(t *testing.T) {
	sales := []saledomain.Sale{
		sale(5, id(9), nil, saledomain.StatusApproved, "300", "150", "30", "0"),
		sale(5, id(9), nil, saledomain.StatusPaid, "100", "50", "10", "0"),
		sale(6, id(9), nil, saledomain.StatusPaid, "100", "50", "10", "0"),
	}
	member := Member(5, "Mia", 9, sales)
	assert.Equal(t, 2, member.SalesCount)
	assert.Equal(t, "400.00", member.SalesVolume.StringFixed(2))
	assert.Equal(t, "200.00", member.OwnSales.StringFixed(2))
	assert.Equal(t, "40.00", member.OverrideToLeader.StringFixed(2))
}
