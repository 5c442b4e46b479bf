package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fyxed/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	paid := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	invoice := domain.Invoice{
		Number:       "INV-202605-01JTEST",
		CustomerName: "Bäckerei Kunz",
		Currency:     "EUR",
		Lines: []domain.LineItem{
			{Description: "Energy audit", Quantity: 2, UnitPrice: decimal.NewFromInt(250), Amount: decimal.NewFromInt(500)},
		},
		Subtotal:  decimal.NewFromInt(500),
		VATRate:   decimal.RequireFromString("0.19"),
		VATAmount: decimal.NewFromInt(95),
		Total:     decimal.NewFromInt(595),
		Status:    domain.StatusPaid,
		IssuedAt:  paid.AddDate(0, 0, -10),
		DueAt:     paid.AddDate(0, 0, 4),
		PaidAt:    &paid,
	}

	out, err := NewPDFRenderer().Render(invoice)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
