package scoring

import (
	"fmt"
	"strings"
)

const (
	bankThreshold    = 700
	fintechThreshold = 400
)

var severeMarkers = []string{"reportado", "castigado", "mora > 60", "datacredito", "datacrédito"}

var clearedMarkers = []string{"paz y salvo", "al dia", "al día", "pagado", "saldado", "recuperado"}

type Policy struct {
	partners Partners
}

func NewPolicy(partners Partners) *Policy {
	return &Policy{partners: partners.withDefaults()}
}

// DetermineStrategy routes a score to a financing tier. The utility-tier
// override is checked before any threshold.
func (p *Policy) DetermineStrategy(score int, hasUtility bool, credit, delinquency string) Decision {
	if hasUtility && severe(credit) && !cleared(delinquency) {
		return p.utility(score)
	}

	switch {
	case score >= bankThreshold:
		return Decision{
			Score:    score,
			Strategy: StrategyBank,
			Action:   ActionRedirect,
			Entity:   p.partners.BankName,
			Link:     p.partners.BankLink,
		}
	case score >= fintechThreshold:
		return Decision{
			Score:             score,
			Strategy:          StrategyFintech,
			Action:            ActionRedirect,
			Entity:            p.partners.FintechName,
			Link:              p.partners.FintechLink,
			RequiresGuarantor: true,
		}
	case hasUtility:
		return p.utility(score)
	default:
		return Decision{
			Score:    score,
			Strategy: StrategyHuman,
			Action:   ActionHandoff,
			Contact:  p.partners.AdvisorLink,
		}
	}
}

func (p *Policy) utility(score int) Decision {
	docs := make([]string, len(p.partners.UtilityDocuments))
	copy(docs, p.partners.UtilityDocuments)
	return Decision{
		Score:     score,
		Strategy:  StrategyUtility,
		Action:    ActionCaptureData,
		Entity:    p.partners.UtilityName,
		Link:      p.partners.UtilityLink,
		Documents: docs,
	}
}

// Evaluate scores a finished profile and routes it. A profile missing any
// scored field is rejected instead of falling back to table defaults.
func (p *Policy) Evaluate(profile Profile) (Decision, error) {
	missing := make([]string, 0, 3)
	if normalize(profile.Occupation) == "" {
		missing = append(missing, "occupation")
	}
	if normalize(profile.IncomeBand) == "" {
		missing = append(missing, "income")
	}
	if normalize(profile.PaymentHabit) == "" && normalize(profile.CreditHistory) == "" {
		missing = append(missing, "credit history")
	}
	if len(missing) > 0 {
		return Decision{}, fmt.Errorf("%w: missing %s", ErrIncompleteProfile, strings.Join(missing, ", "))
	}

	habit := profile.PaymentHabit
	if normalize(habit) == "" {
		habit = profile.CreditHistory
	}

	score := Score(profile.Occupation, habit, profile.IncomeBand)
	return p.DetermineStrategy(score, profile.HasUtilityService, profile.CreditHistory, habit), nil
}

func severe(credit string) bool {
	return containsAny(credit, severeMarkers) && !negatedReport(credit)
}

func cleared(delinquency string) bool {
	return containsAny(delinquency, clearedMarkers) || negatedReport(delinquency)
}

func containsAny(s string, markers []string) bool {
	s = normalize(s)
	if s == "" {
		return false
	}
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
