package domain

import "strings"

type Phase string

const (
	PhaseLeadlist        Phase = "leadlist"
	PhaseResearch        Phase = "research"
	PhaseContact         Phase = "contact"
	PhasePresentFinetune Phase = "present_finetune"
	PhaseDeal            Phase = "deal"
)

// Phases lists the pipeline in its fixed order.
var Phases = []Phase{PhaseLeadlist, PhaseResearch, PhaseContact, PhasePresentFinetune, PhaseDeal}

func ParsePhase(raw string) (Phase, error) {
	phase := Phase(strings.ToLower(strings.TrimSpace(raw)))
	if phase.Index() < 0 {
		return "", ErrInvalidPhase
	}
	return phase, nil
}

// Index returns the position of p in Phases, or -1.
func (p Phase) Index() int {
	for i, phase := range Phases {
		if phase == p {
			return i
		}
	}
	return -1
}

// Next returns the phase after p. The last phase has no successor.
func (p Phase) Next() (Phase, bool) {
	i := p.Index()
	if i < 0 || i == len(Phases)-1 {
		return "", false
	}
	return Phases[i+1], true
}

type StepStatus string

const (
	StatusNotStarted StepStatus = "NOT_STARTED"
	StatusInProgress StepStatus = "IN_PROGRESS"
	StatusDone       StepStatus = "DONE"
	StatusSkipped    StepStatus = "SKIPPED"
)

func ParseStepStatus(raw string) (StepStatus, error) {
	status := StepStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case StatusNotStarted, StatusInProgress, StatusDone, StatusSkipped:
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Terminal reports whether the step is closed.
func (s StepStatus) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

type ContactMethod string

const (
	MethodColdCall ContactMethod = "COLD_CALL"
	MethodEmail    ContactMethod = "EMAIL"
	MethodInPerson ContactMethod = "IN_PERSON"
)

var ContactMethods = []ContactMethod{MethodColdCall, MethodEmail, MethodInPerson}

func ParseContactMethod(raw string) (ContactMethod, error) {
	method := ContactMethod(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range ContactMethods {
		if method == known {
			return method, nil
		}
	}
	return "", ErrInvalidContactMethod
}

type ContactOutcome string

const (
	OutcomeConnected ContactOutcome = "CONNECTED"
	OutcomeNoAnswer  ContactOutcome = "NO_ANSWER"
	OutcomeRejected  ContactOutcome = "REJECTED"
)

func ParseContactOutcome(raw string) (ContactOutcome, error) {
	outcome := ContactOutcome(strings.ToUpper(strings.TrimSpace(raw)))
	switch outcome {
	case OutcomeConnected, OutcomeNoAnswer, OutcomeRejected:
		return outcome, nil
	}
	return "", ErrInvalidContactOutcome
}

type DealResult string

const (
	DealWon     DealResult = "WON"
	DealLost    DealResult = "LOST"
	DealPending DealResult = "PENDING"
)

var DealResults = []DealResult{DealWon, DealLost, DealPending}

func ParseDealResult(raw string) (DealResult, error) {
	result := DealResult(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range DealResults {
		if result == known {
			return result, nil
		}
	}
	return "", ErrInvalidDealResult
}

type Goal string

const (
	GoalLeads      Goal = "LEADS"
	GoalRevenue    Goal = "REVENUE"
	GoalEfficiency Goal = "EFFICIENCY"
)

// ParseGoal accepts an empty value as "no goal".
func ParseGoal(raw string) (Goal, error) {
	goal := Goal(strings.ToUpper(strings.TrimSpace(raw)))
	switch goal {
	case "", GoalLeads, GoalRevenue, GoalEfficiency:
		return goal, nil
	}
	return "", ErrInvalidGoal
}
