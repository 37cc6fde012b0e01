package survey

import (
	"context"
	"errors"
	"time"

	"github.com/Vovarama1992/motos-credit-bridge/internal/scoring"
)

type Status string

const (
	StatusIdle   Status = "IDLE"
	StatusPaused Status = "PAUSED"

	StatusName          Status = "SURVEY_NAME"
	StatusConsent       Status = "SURVEY_CONSENT"
	StatusCity          Status = "SURVEY_CITY"
	StatusOccupation    Status = "SURVEY_OCCUPATION"
	StatusIncome        Status = "SURVEY_INCOME"
	StatusCreditHistory Status = "SURVEY_CREDIT_HISTORY"
	StatusUtility       Status = "SURVEY_UTILITY"
	StatusPhonePlan     Status = "SURVEY_PHONE_PLAN"
)

// InSurvey reports whether s is one of the question steps.
func (s Status) InSurvey() bool {
	_, ok := stepIndex[s]
	return ok
}

var ErrNotActive = errors.New("survey: no active survey")

// Answers has one field per question. Zero values mean "not answered yet".
type Answers struct {
	Name              string `json:"name,omitempty"`
	Consent           bool   `json:"consent,omitempty"`
	City              string `json:"city,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	Income            int64  `json:"income,omitempty"`
	CreditHistory     string `json:"credit_history,omitempty"`
	PaymentHabit      string `json:"payment_habit,omitempty"`
	HasUtilityService bool   `json:"has_utility_service,omitempty"`
	PhonePlan         string `json:"phone_plan,omitempty"`
}

type Session struct {
	Status     Status    `json:"status"`
	Answers    Answers   `json:"answers"`
	RetryCount int       `json:"retry_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SessionStore mirrors sessions outside the process. Load returns nil, nil
// when the user has no stored session.
type SessionStore interface {
	Load(ctx context.Context, user string) (*Session, error)
	Save(ctx context.Context, user string, s *Session) error
	Clear(ctx context.Context, user string) error
}

type ProfileRecorder interface {
	RecordFinalizedAnswers(ctx context.Context, user, name, city string) error
}

type Evaluator interface {
	Evaluate(p scoring.Profile) (scoring.Decision, error)
}
