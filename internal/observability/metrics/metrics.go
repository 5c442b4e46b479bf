package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Config carries the constant labels attached to every series.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes domain counters for the CRM core.
type Metrics struct {
	commissionComputed *prometheus.CounterVec
	phaseTransitions   *prometheus.CounterVec
	contactAttempts    *prometheus.CounterVec
	callsBilled        *prometheus.CounterVec
	callChargeTotal    prometheus.Counter
	creditApplied      *prometheus.CounterVec
	payoutsGenerated   prometheus.Counter
	stripeEvents       *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// Default returns the process-wide Metrics registered on the default registerer.
func Default() *Metrics {
	return WithConfig(Config{})
}

func WithConfig(cfg Config) *Metrics {
	metricsOnce.Do(func() {
		metrics = New(prometheus.DefaultRegisterer, cfg)
	})
	return metrics
}

// New registers a fresh set of collectors on registerer.
func New(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := constLabels(cfg)

	m := &Metrics{
		commissionComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fyxed_commission_computations_total",
			Help:        "Commission splits computed, partitioned by whether the house floor applied.",
			ConstLabels: constLabels,
		}, []string{"floor_applied"}),
		phaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fyxed_pipeline_phase_transitions_total",
			Help:        "Pipeline step status transitions by phase and target status.",
			ConstLabels: constLabels,
		}, []string{"phase", "to"}),
		contactAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fyxed_pipeline_contact_attempts_total",
			Help:        "Contact attempts logged by method and outcome.",
			ConstLabels: constLabels,
		}, []string{"method", "outcome"}),
		callsBilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fyxed_calls_billed_total",
			Help:        "Calls billed against actor credit by ended reason.",
			ConstLabels: constLabels,
		}, []string{"ended_reason"}),
		callChargeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fyxed_call_charge_amount_total",
			Help:        "Sum of call charges debited from actor credit.",
			ConstLabels: constLabels,
		}),
		creditApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fyxed_credit_transactions_total",
			Help:        "Credit ledger transactions by type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		payoutsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fyxed_payouts_generated_total",
			Help:        "Monthly payout rows created.",
			ConstLabels: constLabels,
		}),
		stripeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fyxed_stripe_events_total",
			Help:        "Stripe webhook events by type and handling result.",
			ConstLabels: constLabels,
		}, []string{"type", "result"}),
	}

	registerer.MustRegister(
		m.commissionComputed,
		m.phaseTransitions,
		m.contactAttempts,
		m.callsBilled,
		m.callChargeTotal,
		m.creditApplied,
		m.payoutsGenerated,
		m.stripeEvents,
	)
	return m
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "fyxed"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{"service": serviceName, "env": environment}
}

func (m *Metrics) IncCommissionComputed(floorApplied bool) {
	if m == nil {
		return
	}
	label := "false"
	if floorApplied {
		label = "true"
	}
	m.commissionComputed.WithLabelValues(label).Inc()
}

func (m *Metrics) IncPhaseTransition(phase, to string) {
	if m == nil {
		return
	}
	m.phaseTransitions.WithLabelValues(phase, to).Inc()
}

func (m *Metrics) IncContactAttempt(method, outcome string) {
	if m == nil {
		return
	}
	m.contactAttempts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) ObserveCallBilled(endedReason string, cost decimal.Decimal) {
	if m == nil {
		return
	}
	if strings.TrimSpace(endedReason) == "" {
		endedReason = "unknown"
	}
	m.callsBilled.WithLabelValues(endedReason).Inc()
	if cost.IsPositive() {
		m.callChargeTotal.Add(cost.InexactFloat64())
	}
}

func (m *Metrics) IncCreditTransaction(txType string) {
	if m == nil {
		return
	}
	m.creditApplied.WithLabelValues(txType).Inc()
}

func (m *Metrics) AddPayoutsGenerated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.payoutsGenerated.Add(float64(count))
}

func (m *Metrics) IncStripeEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.stripeEvents.WithLabelValues(eventType, result).Inc()
}
