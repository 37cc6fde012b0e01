package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Vovarama1992/motos-credit-bridge/internal/ai"
	"github.com/Vovarama1992/motos-credit-bridge/internal/debounce"
	"github.com/Vovarama1992/motos-credit-bridge/internal/scoring"
	"github.com/Vovarama1992/motos-credit-bridge/internal/session"
	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
)

type sentMessage struct {
	to   string
	text string
}

type fakeOutbound struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeOutbound) SendText(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	return nil
}

func (f *fakeOutbound) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeOutbound) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeOutbound) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeRepo struct {
	mu       sync.Mutex
	messages []Message
}

func (f *fakeRepo) SaveMessage(_ context.Context, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeRepo) inbound(user string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.messages {
		if m.User == user && m.Sender == SenderClient {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeRepo) GetHistory(_ context.Context, user string, limit int) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, m := range f.messages {
		if m.User == user {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeProspects struct {
	mu        sync.Mutex
	touched   map[string]string
	humanHelp map[string]bool
	name      string
	city      string
}

func newFakeProspects() *fakeProspects {
	return &fakeProspects{touched: map[string]string{}, humanHelp: map[string]bool{}}
}

func (f *fakeProspects) Touch(_ context.Context, user, profileName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[user] = profileName
	return nil
}

func (f *fakeProspects) RecordFinalizedAnswers(_ context.Context, _, name, city string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name, f.city = name, city
	return nil
}

func (f *fakeProspects) SetHumanHelp(_ context.Context, user string, requested bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.humanHelp[user] = requested
	return nil
}

func (f *fakeProspects) helpRequested(user string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.humanHelp[user]
}

type fakeNotifier struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeNotifier) NotifyHandoff(_ context.Context, _, reason, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reasons)
}

type fakeAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	history []ai.Message
}

func (f *fakeAI) GetReply(_ context.Context, _ string, history []ai.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = history
	return f.reply, f.err
}

type harness struct {
	svc       Service
	out       *fakeOutbound
	repo      *fakeRepo
	prospects *fakeProspects
	notifier  *fakeNotifier
	ai        *fakeAI
	machine   *survey.Machine
	debouncer *debounce.Debouncer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithWindow(t, 15*time.Millisecond)
}

func newHarnessWithWindow(t *testing.T, window time.Duration) *harness {
	t.Helper()
	h := &harness{
		out:       &fakeOutbound{},
		repo:      &fakeRepo{},
		prospects: newFakeProspects(),
		notifier:  &fakeNotifier{},
		ai:        &fakeAI{reply: "¡Hola! ¿Qué moto te interesa? 🏍️"},
		debouncer: debounce.New(window, zap.NewNop()),
	}
	h.machine = survey.NewMachine(
		session.NewMemory(),
		h.prospects,
		scoring.NewPolicy(scoring.DefaultPartners()),
		survey.Config{MaxStrikes: 2, Timeout: time.Hour, MinimumWage: 1423500},
		zap.NewNop(),
	)
	h.svc = NewService(Deps{
		Repo:      h.repo,
		Prospects: h.prospects,
		Outbound:  h.out,
		Notifier:  h.notifier,
		AI:        h.ai,
		Survey:    h.machine,
		Debouncer: h.debouncer,
	}, Options{FinancialWindow: 5 * time.Millisecond}, zap.NewNop())
	t.Cleanup(h.debouncer.Close)
	return h
}

var msgSeq atomic.Int64

func nextID() string {
	return fmt.Sprintf("wamid.test.%d", msgSeq.Add(1))
}

func (h *harness) incoming(t *testing.T, from, text string) {
	t.Helper()
	require.NoError(t, h.svc.HandleIncoming(context.Background(), &Message{
		ID:   nextID(),
		From: from,
		Type: TypeText,
		Text: text,
	}))
}

// say sends one message and waits for exactly one more outbound reply.
func (h *harness) say(t *testing.T, from, text string) sentMessage {
	t.Helper()
	before := h.out.count()
	h.incoming(t, from, text)
	require.Eventually(t, func() bool { return h.out.count() == before+1 }, time.Second, 2*time.Millisecond, "no reply to %q", text)
	return h.out.last()
}
