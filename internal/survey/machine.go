package survey

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/motos-credit-bridge/internal/scoring"
)

const (
	DefaultMaxStrikes = 2
	DefaultTimeout    = 30 * time.Minute
)

type Config struct {
	// MaxStrikes is the number of consecutive invalid answers that
	// escalates to a human.
	MaxStrikes int
	// Timeout discards a survey left unanswered for longer. Zero disables it.
	Timeout time.Duration
	// MinimumWage is used to band the numeric income.
	MinimumWage int64
}

// Machine drives the credit survey. It owns the live sessions in memory and
// mirrors every change to the store; the caller guarantees at most one step
// per user at a time.
type Machine struct {
	store  SessionStore
	crm    ProfileRecorder
	policy Evaluator
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

func NewMachine(store SessionStore, crm ProfileRecorder, policy Evaluator, cfg Config, logger *zap.Logger) *Machine {
	if cfg.MaxStrikes <= 0 {
		cfg.MaxStrikes = DefaultMaxStrikes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		store:    store,
		crm:      crm,
		policy:   policy,
		cfg:      cfg,
		logger:   logger.Named("survey"),
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

func (m *Machine) Status(ctx context.Context, user string) Status {
	return m.session(ctx, user).Status
}

// Start opens a new survey, discarding any previous answers.
func (m *Machine) Start(ctx context.Context, user string) Reply {
	s := Session{Status: steps[0].status}
	m.commit(ctx, user, s)
	m.logger.Info("survey started", zap.String("user", user))
	return Reply{Text: introText + steps[0].prompt(s.Answers)}
}

// Pause hands the user to a human; the bot stays silent until Resume.
func (m *Machine) Pause(ctx context.Context, user string) {
	m.commit(ctx, user, Session{Status: StatusPaused})
}

func (m *Machine) Resume(ctx context.Context, user string) {
	m.commit(ctx, user, Session{Status: StatusIdle})
}

// Step evaluates one aggregated answer against the current step.
func (m *Machine) Step(ctx context.Context, user, text string) (Reply, error) {
	s := m.session(ctx, user)
	idx, ok := stepIndex[s.Status]
	if !ok {
		return Reply{}, ErrNotActive
	}
	current := steps[idx]
	log := m.logger.With(zap.String("user", user), zap.String("step", string(current.status)))

	if RequestsHuman(text) {
		log.Info("immediate exit requested")
		return m.escalate(ctx, user, "", "user requested help inside survey"), nil
	}

	switch current.apply(&s.Answers, text) {
	case declined:
		log.Info("consent declined, answers purged")
		m.commit(ctx, user, Session{Status: StatusIdle})
		return Reply{Text: ConsentDeclinedText}, nil

	case valid:
		s.RetryCount = 0
		if idx == len(steps)-1 {
			return m.finalize(ctx, user, s.Answers), nil
		}
		next := steps[idx+1]
		s.Status = next.status
		m.commit(ctx, user, s)
		log.Debug("advanced", zap.String("next", string(next.status)))
		return Reply{Text: next.prompt(s.Answers)}, nil
	}

	if s.RetryCount+1 >= m.cfg.MaxStrikes {
		log.Warn("strike limit reached", zap.Int("strikes", s.RetryCount+1))
		return m.escalate(ctx, user, StrikeTwoText, "repeated invalid answers at "+string(current.status)), nil
	}
	s.RetryCount++
	m.commit(ctx, user, s)
	log.Info("strike", zap.Int("retry_count", s.RetryCount))
	return Reply{Text: StrikeOneText}, nil
}

func (m *Machine) escalate(ctx context.Context, user, text, reason string) Reply {
	m.commit(ctx, user, Session{Status: StatusPaused})
	return Reply{Text: text, Handoff: true, Reason: reason}
}

func (m *Machine) finalize(ctx context.Context, user string, a Answers) Reply {
	profile := scoring.Profile{
		Occupation:        a.Occupation,
		IncomeBand:        scoring.IncomeBand(a.Income, m.cfg.MinimumWage),
		CreditHistory:     a.CreditHistory,
		PaymentHabit:      a.PaymentHabit,
		HasUtilityService: a.HasUtilityService,
		PhonePlan:         a.PhonePlan,
	}

	decision, err := m.policy.Evaluate(profile)
	if err != nil {
		m.logger.Error("profile evaluation failed", zap.String("user", user), zap.Error(err))
		return m.escalate(ctx, user, "", "error calculating score")
	}

	if m.crm != nil {
		if err := m.crm.RecordFinalizedAnswers(ctx, user, a.Name, a.City); err != nil {
			m.logger.Warn("crm record failed", zap.String("user", user), zap.Error(err))
		}
	}

	m.commit(ctx, user, Session{Status: StatusIdle})
	m.logger.Info("survey finalized",
		zap.String("user", user),
		zap.Int("score", decision.Score),
		zap.String("strategy", string(decision.Strategy)),
		zap.String("action", string(decision.Action)),
	)

	r := Reply{Text: decisionText(decision), Decision: &decision}
	if decision.Action == scoring.ActionHandoff {
		r.Handoff = true
		r.Reason = "score below partner thresholds"
	}
	return r
}

func (m *Machine) session(ctx context.Context, user string) Session {
	m.mu.Lock()
	s, ok := m.sessions[user]
	m.mu.Unlock()

	if !ok {
		s = Session{Status: StatusIdle}
		if m.store != nil {
			stored, err := m.store.Load(ctx, user)
			if err != nil {
				m.logger.Warn("session load failed", zap.String("user", user), zap.Error(err))
			} else if stored != nil {
				s = *stored
			}
		}
	}

	if s.Status.InSurvey() && m.cfg.Timeout > 0 && !s.UpdatedAt.IsZero() &&
		m.now().Sub(s.UpdatedAt) > m.cfg.Timeout {
		m.logger.Info("stale survey discarded", zap.String("user", user), zap.Time("updated_at", s.UpdatedAt))
		s = Session{Status: StatusIdle}
		m.commit(ctx, user, s)
	}
	return s
}

// commit replaces the in-memory session and mirrors it to the store.
// IDLE drops the user from memory once the store is cleared. Store failures
// only cost durability.
func (m *Machine) commit(ctx context.Context, user string, s Session) {
	s.UpdatedAt = m.now()

	if s.Status == StatusIdle {
		var err error
		if m.store != nil {
			err = m.store.Clear(ctx, user)
		}
		m.mu.Lock()
		if err == nil {
			delete(m.sessions, user)
		} else {
			m.sessions[user] = s
		}
		m.mu.Unlock()
		if err != nil {
			m.logger.Warn("session clear failed", zap.String("user", user), zap.Error(err))
		}
		return
	}

	m.mu.Lock()
	m.sessions[user] = s
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, user, &s); err != nil {
		m.logger.Warn("session persist failed", zap.String("user", user), zap.String("status", string(s.Status)), zap.Error(err))
	}
}
