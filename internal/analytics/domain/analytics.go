package domain

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	pipelinedomain "github.com/smallbiznis/fyxed/internal/pipeline/domain"
)

// GeneralChecklistKey buckets checklist items without a phase tag.
const GeneralChecklistKey = "general"

const hoursPerDay = 24

type Funnel struct {
	Counts      map[pipelinedomain.Phase]int `json:"counts"`
	Conversions map[string]float64           `json:"conversions"`
}

type DurationStats struct {
	Count      int     `json:"count"`
	AvgDays    float64 `json:"avg_days"`
	MedianDays float64 `json:"median_days"`
	MinDays    float64 `json:"min_days"`
	MaxDays    float64 `json:"max_days"`
}

type MethodStats struct {
	Attempts      int     `json:"attempts"`
	Connected     int     `json:"connected"`
	ConnectRate   float64 `json:"connect_rate"`
	CompaniesUsed int     `json:"companies_used"`
	Won           int     `json:"won"`
	WinRate       float64 `json:"win_rate"`
}

type CompletionStats struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

type ChecklistCompletion struct {
	ByPhase map[string]CompletionStats `json:"by_phase"`
	ByOwner map[string]CompletionStats `json:"by_owner"`
}

type Overview struct {
	TotalCompanies int                                          `json:"total_companies"`
	Funnel         Funnel                                       `json:"funnel"`
	DealOutcomes   map[pipelinedomain.DealResult]int            `json:"deal_outcomes"`
	PhaseDurations map[pipelinedomain.Phase]DurationStats       `json:"phase_durations"`
	ContactMethods map[pipelinedomain.ContactMethod]MethodStats `json:"contact_methods"`
	Checklist      ChecklistCompletion                          `json:"checklist"`
}

type OverviewRequest struct {
	OwnerID string
	From    *time.Time
	To      *time.Time
}

type Service interface {
	// Overview aggregates the organization's live companies. Agents only see their own.
	Overview(ctx context.Context, req OverviewRequest) (Overview, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
)

// ComputeOverview runs every aggregation over companies.
func ComputeOverview(companies []pipelinedomain.Company) Overview {
	return Overview{
		TotalCompanies: len(companies),
		Funnel:         ComputeFunnel(companies),
		DealOutcomes:   ComputeDealOutcomes(companies),
		PhaseDurations: ComputePhaseDurations(companies),
		ContactMethods: ComputeContactMethods(companies),
		Checklist:      ComputeChecklistCompletion(companies),
	}
}

// ComputeFunnel counts companies per current phase. The conversion between
// two adjacent phases is the share of companies at or past the first phase
// that also reached the second one.
func ComputeFunnel(companies []pipelinedomain.Company) Funnel {
	funnel := Funnel{
		Counts:      make(map[pipelinedomain.Phase]int, len(pipelinedomain.Phases)),
		Conversions: make(map[string]float64, len(pipelinedomain.Phases)-1),
	}
	for _, phase := range pipelinedomain.Phases {
		funnel.Counts[phase] = 0
	}
	for _, c := range companies {
		if c.CurrentPhase.Index() >= 0 {
			funnel.Counts[c.CurrentPhase]++
		}
	}

	atOrBeyond := make([]int, len(pipelinedomain.Phases))
	running := 0
	for i := len(pipelinedomain.Phases) - 1; i >= 0; i-- {
		running += funnel.Counts[pipelinedomain.Phases[i]]
		atOrBeyond[i] = running
	}
	for i := 0; i < len(pipelinedomain.Phases)-1; i++ {
		key := string(pipelinedomain.Phases[i]) + "_to_" + string(pipelinedomain.Phases[i+1])
		funnel.Conversions[key] = percent(atOrBeyond[i+1], atOrBeyond[i])
	}
	return funnel
}

func ComputeDealOutcomes(companies []pipelinedomain.Company) map[pipelinedomain.DealResult]int {
	outcomes := make(map[pipelinedomain.DealResult]int, len(pipelinedomain.DealResults))
	for _, result := range pipelinedomain.DealResults {
		outcomes[result] = 0
	}
	for _, c := range companies {
		if result := c.StepState.Deal.Result; result != nil {
			outcomes[*result]++
		}
	}
	return outcomes
}

// ComputePhaseDurations reports elapsed days per phase over companies that
// have both a start and a completion time for it.
func ComputePhaseDurations(companies []pipelinedomain.Company) map[pipelinedomain.Phase]DurationStats {
	out := make(map[pipelinedomain.Phase]DurationStats, len(pipelinedomain.Phases))
	for _, phase := range pipelinedomain.Phases {
		var days []float64
		for i := range companies {
			base := companies[i].StepState.Base(phase)
			if base.StartedAt == nil || base.CompletedAt == nil {
				continue
			}
			days = append(days, base.CompletedAt.Sub(*base.StartedAt).Hours()/hoursPerDay)
		}
		out[phase] = durationStats(days)
	}
	return out
}

// ComputeContactMethods counts attempts per attempted method, and companies
// and wins per claimed method.
func ComputeContactMethods(companies []pipelinedomain.Company) map[pipelinedomain.ContactMethod]MethodStats {
	out := make(map[pipelinedomain.ContactMethod]MethodStats, len(pipelinedomain.ContactMethods))
	for _, method := range pipelinedomain.ContactMethods {
		out[method] = MethodStats{}
	}
	for _, c := range companies {
		for _, attempt := range c.StepState.Contact.Attempts {
			stats := out[attempt.Method]
			stats.Attempts++
			if attempt.Outcome == pipelinedomain.OutcomeConnected {
				stats.Connected++
			}
			out[attempt.Method] = stats
		}
		if claimed := c.StepState.Contact.Method; claimed != nil {
			stats := out[*claimed]
			stats.CompaniesUsed++
			if result := c.StepState.Deal.Result; result != nil && *result == pipelinedomain.DealWon {
				stats.Won++
			}
			out[*claimed] = stats
		}
	}
	for method, stats := range out {
		stats.ConnectRate = percent(stats.Connected, stats.Attempts)
		stats.WinRate = percent(stats.Won, stats.CompaniesUsed)
		out[method] = stats
	}
	return out
}

func ComputeChecklistCompletion(companies []pipelinedomain.Company) ChecklistCompletion {
	out := ChecklistCompletion{
		ByPhase: map[string]CompletionStats{},
		ByOwner: map[string]CompletionStats{},
	}
	for _, c := range companies {
		owner := c.OwnerID.String()
		for _, item := range c.Checklist {
			key := GeneralChecklistKey
			if item.PhaseKey != nil {
				key = string(*item.PhaseKey)
			}
			out.ByPhase[key] = tally(out.ByPhase[key], item.Checked)
			out.ByOwner[owner] = tally(out.ByOwner[owner], item.Checked)
		}
	}
	for key, stats := range out.ByPhase {
		stats.Rate = percent(stats.Completed, stats.Total)
		out.ByPhase[key] = stats
	}
	for key, stats := range out.ByOwner {
		stats.Rate = percent(stats.Completed, stats.Total)
		out.ByOwner[key] = stats
	}
	return out
}

func tally(stats CompletionStats, checked bool) CompletionStats {
	stats.Total++
	if checked {
		stats.Completed++
	}
	return stats
}

// durationStats uses the element at n/2 of the sorted sample as the median,
// so even-sized samples report the upper of the two middle values.
func durationStats(days []float64) DurationStats {
	if len(days) == 0 {
		return DurationStats{}
	}
	sorted := append([]float64(nil), days...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, d := range sorted {
		sum += d
	}
	return DurationStats{
		Count:      len(sorted),
		AvgDays:    round2(sum / float64(len(sorted))),
		MedianDays: round2(sorted[len(sorted)/2]),
		MinDays:    round2(sorted[0]),
		MaxDays:    round2(sorted[len(sorted)-1]),
	}
}

// percent returns part/whole as a percentage with two decimals, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).
		Round(2).
		InexactFloat64()
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
