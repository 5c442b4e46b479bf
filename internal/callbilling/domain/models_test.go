package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCharge(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rate := decimal.RequireFromString("0.5")

	cases := []struct {
		name    string
		d       time.Duration
		minutes int64
		cost    string
	}{
		{name: "zero", d: 0, minutes: 0, cost: "0.00"},
		{name: "one second", d: time.Second, minutes: 1, cost: "0.50"},
		{name: "exact minute", d: time.Minute, minutes: 1, cost: "0.50"},
		{name: "just over", d: time.Minute + time.Second, minutes: 2, cost: "1.00"},
		{name: "long", d: 9*time.Minute + 59*time.Second, minutes: 10, cost: "5.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			charge, err := ComputeCharge(start, start.Add(tc.d), rate)
			require.NoError(t, err)
			assert.Equal(t, tc.minutes, charge.Minutes)
			assert.Equal(t, tc.cost, charge.Cost.StringFixed(2))
		})
	}
}

func TestComputeChargeRejectsBadWindow(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	rate := decimal.RequireFromString("0.5")

	_, err := ComputeCharge(start, start.Add(-time.Second), rate)
	assert.ErrorIs(t, err, ErrInvalidCallWindow)
	_, err = ComputeCharge(time.Time{}, start, rate)
	assert.ErrorIs(t, err, ErrInvalidCallWindow)
	_, err = ComputeCharge(start, start, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidRate)
}
