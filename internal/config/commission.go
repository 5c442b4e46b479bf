package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CommissionConfig holds the operator-tunable money settings loaded from commission.yml.
type CommissionConfig struct {
	Currency          string              `mapstructure:"currency"`
	VATRate           float64             `mapstructure:"vatRate"`
	CallRatePerMinute float64             `mapstructure:"callRatePerMinute"`
	InvoiceDueDays    int                 `mapstructure:"invoiceDueDays"`
	PayoutMinimum     float64             `mapstructure:"payoutMinimum"`
	DefaultChecklist  []ChecklistTemplate `mapstructure:"defaultChecklist"`
}

// ChecklistTemplate seeds a checklist item on every new company.
type ChecklistTemplate struct {
	Label string `mapstructure:"label"`
	Phase string `mapstructure:"phase"`
}

func (c CommissionConfig) VAT() decimal.Decimal {
	return decimal.NewFromFloat(c.VATRate)
}

func (c CommissionConfig) CallRate() decimal.Decimal {
	return decimal.NewFromFloat(c.CallRatePerMinute)
}

func (c CommissionConfig) PayoutFloor() decimal.Decimal {
	return decimal.NewFromFloat(c.PayoutMinimum)
}

func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		Currency:          "EUR",
		VATRate:           0.19,
		CallRatePerMinute: 0.5,
		InvoiceDueDays:    14,
		PayoutMinimum:     0,
		DefaultChecklist: []ChecklistTemplate{
			{Label: "Find decision maker", Phase: "research"},
			{Label: "Collect last energy bill", Phase: "research"},
			{Label: "Book follow-up meeting", Phase: "contact"},
			{Label: "Send proposal", Phase: "deal"},
		},
	}
}

// CommissionConfigHolder keeps the latest valid CommissionConfig and swaps it on file changes.
type CommissionConfigHolder struct {
	current atomic.Value // holds CommissionConfig
}

// NewStaticCommissionConfig returns a holder that never reloads.
func NewStaticCommissionConfig(cfg CommissionConfig) *CommissionConfigHolder {
	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCommissionConfigHolder(log *zap.Logger) (*CommissionConfigHolder, error) {
	log = log.Named("config.commission")
	v := viper.New()

	v.SetConfigName("commission")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/fyxed/config")
	v.AddConfigPath("/etc/fyxed")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FYXED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCommissionConfig()
	v.SetDefault("commission.currency", defaults.Currency)
	v.SetDefault("commission.vatRate", defaults.VATRate)
	v.SetDefault("commission.callRatePerMinute", defaults.CallRatePerMinute)
	v.SetDefault("commission.invoiceDueDays", defaults.InvoiceDueDays)
	v.SetDefault("commission.payoutMinimum", defaults.PayoutMinimum)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Info("commission.yml not found, using defaults")
	}

	cfg, err := decodeCommissionConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticCommissionConfig(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCommissionConfig(v)
		if err != nil {
			log.Warn("reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// Get returns the active config. A nil holder yields the defaults.
func (h *CommissionConfigHolder) Get() CommissionConfig {
	if h == nil {
		return DefaultCommissionConfig()
	}
	return h.current.Load().(CommissionConfig)
}

func decodeCommissionConfig(v *viper.Viper) (CommissionConfig, error) {
	var cfg CommissionConfig
	if err := v.UnmarshalKey("commission", &cfg); err != nil {
		return CommissionConfig{}, err
	}
	if len(cfg.DefaultChecklist) == 0 && !v.IsSet("commission.defaultChecklist") {
		cfg.DefaultChecklist = DefaultCommissionConfig().DefaultChecklist
	}
	if err := validateCommissionConfig(cfg); err != nil {
		return CommissionConfig{}, err
	}
	return cfg, nil
}

func validateCommissionConfig(cfg CommissionConfig) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("commission.currency cannot be empty")
	}
	if cfg.VATRate < 0 || cfg.VATRate > 1 {
		return errors.New("commission.vatRate must be between 0 and 1")
	}
	if cfg.CallRatePerMinute < 0 {
		return errors.New("commission.callRatePerMinute cannot be negative")
	}
	if cfg.InvoiceDueDays < 0 {
		return errors.New("commission.invoiceDueDays cannot be negative")
	}
	if cfg.PayoutMinimum < 0 {
		return errors.New("commission.payoutMinimum cannot be negative")
	}
	return nil
}
