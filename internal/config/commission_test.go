package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommissionConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte("commission:\n  currency: USD\n  vatRate: 0.2\n  callRatePerMinute: 0.75\n  invoiceDueDays: 30\n  payoutMinimum: 10\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "commission.yml"), body, 0o600))

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "commission.yml"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeCommissionConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "0.75", cfg.CallRate().String())
	assert.Equal(t, "0.2", cfg.VAT().String())
	assert.Equal(t, 30, cfg.InvoiceDueDays)
	assert.Len(t, cfg.DefaultChecklist, len(DefaultCommissionConfig().DefaultChecklist))
}

func TestValidateCommissionConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CommissionConfig)
	}{
		{name: "empty currency", mutate: func(c *CommissionConfig) { c.Currency = " " }},
		{name: "vat above one", mutate: func(c *CommissionConfig) { c.VATRate = 1.5 }},
		{name: "negative call rate", mutate: func(c *CommissionConfig) { c.CallRatePerMinute = -1 }},
		{name: "negative payout minimum", mutate: func(c *CommissionConfig) { c.PayoutMinimum = -5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultCommissionConfig()
			tc.mutate(&cfg)
			if err := validateCommissionConfig(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	assert.NoError(t, validateCommissionConfig(DefaultCommissionConfig()))
}

func TestStaticCommissionConfig(t *testing.T) {
	holder := NewStaticCommissionConfig(DefaultCommissionConfig())
	assert.Equal(t, "0.5", holder.Get().CallRate().String())
}
