package scoring

import "errors"

type Strategy string

const (
	StrategyBank    Strategy = "BANCO"
	StrategyFintech Strategy = "FINTECH"
	StrategyUtility Strategy = "BRILLA"
	StrategyHuman   Strategy = "HUMAN"
)

type Action string

const (
	ActionRedirect    Action = "REDIRECT"
	ActionCaptureData Action = "CAPTURE_DATA"
	ActionHandoff     Action = "HANDOFF"
)

var ErrIncompleteProfile = errors.New("scoring: incomplete profile")

// Profile is the categorized applicant description built from a finished survey.
type Profile struct {
	Occupation        string
	IncomeBand        string
	CreditHistory     string
	PaymentHabit      string
	HousingExpense    string
	HasUtilityService bool
	PhonePlan         string
}

// Decision is what the routing policy hands back to the caller. Only the
// payload field matching Action is filled.
type Decision struct {
	Score             int
	Strategy          Strategy
	Action            Action
	Entity            string
	Link              string
	Documents         []string
	Contact           string
	RequiresGuarantor bool
}
