package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2026, 7, 3, 23, 30, 0, 0, time.UTC)

	number, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, "01jabcde")
	require.NoError(t, err)
	assert.Equal(t, "INV-202607-01JABCDE", number)

	number, err = FormatInvoiceNumber("{YY}/{DD}", issued, "")
	require.NoError(t, err)
	assert.Equal(t, "26/03", number)
}

func TestFormatInvoiceNumberUsesUTC(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	issued := time.Date(2026, 8, 1, 1, 0, 0, 0, berlin)

	number, err := FormatInvoiceNumber("{YYYY}{MM}{DD}", issued, "")
	require.NoError(t, err)
	assert.Equal(t, "20260731", number)
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	issued := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)

	_, err := FormatInvoiceNumber(" ", issued, "x")
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, " ")
	assert.ErrorIs(t, err, ErrEmptySuffix)

	_, err = FormatInvoiceNumber("INV-{SEQ}", issued, "x")
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.Contains(t, err.Error(), "{SEQ}")

	_, err = FormatInvoiceNumber("INV-{YYYY", issued, "x")
	assert.ErrorIs(t, err, ErrUnknownToken)
}
