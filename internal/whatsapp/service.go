package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Vovarama1992/motos-credit-bridge/internal/ai"
	"github.com/Vovarama1992/motos-credit-bridge/internal/debounce"
	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
)

const (
	reactivatedText     = "🤖 Bot Reactivado. ¿En qué puedo ayudarte?"
	unsupportedText     = "Aún no soporto este tipo de mensaje. 😅"
	handoffText         = "Entendido, te paso con un asesor humano."
	explicitHandoffText = "Entendido. He pausado mi respuesta automática. 🛑 " +
		"Un asesor humano revisará tu caso en breve y te escribirá por aquí. 👨‍💻"
	aiErrorText = "Disculpa, tuve un problema técnico. 🙏 ¿Me repites tu pregunta?"

	defaultHistoryLimit = 20
)

var magicWords = map[string]bool{"#bot": true, "#reset": true}

// HandoffKeywords pause the bot outside a survey. Narrower than the
// in-survey exit words: "ayuda" and "no entiendo" are ordinary sales talk.
var HandoffKeywords = []string{
	"asesor", "humano", "persona", "alguien real", "jefe", "gerente", "reclamo", "queja",
}

var FinancialKeywords = []string{
	"credito", "crédito", "financiar", "financiación", "financiacion",
	"estudio", "cuotas", "cuota", "valor", "precio", "fiado",
}

type Deps struct {
	Repo      Repo
	Prospects ProspectRepo
	Outbound  Outbound
	Notifier  Notifier
	AI        ai.AI
	Survey    Surveyor
	Debouncer Debouncer
}

type Options struct {
	// FinancialWindow replaces the debounce window when a fragment shows
	// credit intent. Zero keeps the default window.
	FinancialWindow time.Duration
	HistoryLimit    int
}

type service struct {
	Deps
	opts   Options
	logger *zap.Logger
}

func NewService(d Deps, opts Options, logger *zap.Logger) Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{Deps: d, opts: opts, logger: logger.Named("svc")}
}

func (s *service) HandleIncoming(ctx context.Context, msg *Message) error {
	user := NormalizePhone(msg.From)
	if user == "" {
		return errors.New("whatsapp: message without sender")
	}
	msg.User = user
	msg.Sender = SenderClient
	log := s.logger.With(zap.String("user", user), zap.String("wamid", msg.ID))

	if err := s.Prospects.Touch(ctx, user, msg.ProfileName); err != nil {
		log.Warn("prospect touch failed", zap.Error(err))
	}

	if msg.Type != TypeText {
		log.Info("unsupported message type", zap.String("type", msg.Type))
		if s.Survey.Status(ctx, user) == survey.StatusPaused {
			return nil
		}
		return s.send(ctx, user, unsupportedText)
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}
	msg.Text = text

	if magicWords[strings.ToLower(text)] {
		log.Info("bot reactivated by magic word")
		if err := s.Resume(ctx, user); err != nil {
			return err
		}
		return s.send(ctx, user, reactivatedText)
	}

	status := s.Survey.Status(ctx, user)
	if status == survey.StatusPaused {
		log.Debug("paused, staying silent")
		return nil
	}

	if !status.InSurvey() && survey.Matches(text, HandoffKeywords) {
		log.Info("explicit handoff request")
		s.saveInbound(ctx, user, text)
		return s.deliver(ctx, user, text, survey.Reply{
			Text:    explicitHandoffText,
			Handoff: true,
			Reason:  "user asked for a human",
		})
	}

	var delay time.Duration
	if survey.Matches(text, FinancialKeywords) {
		delay = s.opts.FinancialWindow
	}
	if !s.Debouncer.Submit(ctx, user, text, msg.ID, delay, s.flush) {
		log.Debug("fragment not scheduled")
	}
	return nil
}

// flush runs once per debounced burst.
func (s *service) flush(ctx context.Context, user, text string) {
	log := s.logger.With(zap.String("user", user))
	log.Info("processing burst", zap.String("text", short(text)))

	status := s.Survey.Status(ctx, user)
	if status == survey.StatusPaused {
		log.Debug("paused while buffering, dropping burst")
		return
	}

	s.saveInbound(ctx, user, text)
	reply, err := s.route(ctx, user, text, status)
	if err != nil {
		log.Error("routing failed", zap.Error(err))
		return
	}
	if err := s.deliver(ctx, user, text, reply); err != nil {
		log.Error("deliver failed", zap.Error(err))
	}
}

// route picks the engine: active survey, then credit intent, then AI.
func (s *service) route(ctx context.Context, user, text string, status survey.Status) (survey.Reply, error) {
	if status.InSurvey() {
		reply, err := s.Survey.Step(ctx, user, text)
		if !errors.Is(err, survey.ErrNotActive) {
			return reply, err
		}
	}
	if survey.Matches(text, FinancialKeywords) {
		return s.Survey.Start(ctx, user), nil
	}
	return s.aiReply(ctx, user, text), nil
}

func (s *service) aiReply(ctx context.Context, user, text string) survey.Reply {
	history, err := s.Repo.GetHistory(ctx, user, s.opts.HistoryLimit)
	if err != nil {
		s.logger.Warn("history load failed", zap.String("user", user), zap.Error(err))
	}

	msgs := make([]ai.Message, 0, len(history)+1)
	for _, m := range history {
		role := ai.RoleUser
		if m.Sender == SenderBot {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Text: m.Text})
	}
	if len(msgs) == 0 {
		msgs = append(msgs, ai.Message{Role: ai.RoleUser, Text: text})
	}

	raw, err := s.AI.GetReply(ctx, ai.SalesPrompt, msgs)
	if err != nil {
		s.logger.Error("ai reply failed", zap.String("user", user), zap.Error(err))
		return survey.Reply{Text: aiErrorText}
	}
	if reason, ok := survey.ParseHandoff(raw); ok {
		return survey.Reply{Handoff: true, Reason: reason}
	}
	return survey.Reply{Text: raw}
}

// deliver sends the reply. A handoff also pauses the bot for this user,
// flags the prospect and alerts the admin.
func (s *service) deliver(ctx context.Context, user, lastText string, reply survey.Reply) error {
	text := reply.Text
	if reply.Handoff {
		s.logger.Warn("handoff", zap.String("user", user), zap.String("reason", reply.Reason))
		s.Survey.Pause(ctx, user)
		if err := s.Prospects.SetHumanHelp(ctx, user, true); err != nil {
			s.logger.Warn("flag human help failed", zap.String("user", user), zap.Error(err))
		}
		if err := s.Notifier.NotifyHandoff(ctx, user, reply.Reason, lastText); err != nil {
			s.logger.Warn("admin notification failed", zap.String("user", user), zap.Error(err))
		}
		if text == "" {
			text = handoffText
		}
	}
	if text == "" {
		return nil
	}
	return s.send(ctx, user, text)
}

// saveInbound stores one row per burst, so duplicates rejected by the
// debouncer never reach the history.
func (s *service) saveInbound(ctx context.Context, user, text string) {
	if err := s.Repo.SaveMessage(ctx, &Message{User: user, Sender: SenderClient, Type: TypeText, Text: text}); err != nil {
		s.logger.Warn("save inbound failed", zap.String("user", user), zap.Error(err))
	}
}

func (s *service) send(ctx context.Context, user, text string) error {
	if err := s.Outbound.SendText(ctx, ToInternational(user), text); err != nil {
		return err
	}
	if err := s.Repo.SaveMessage(ctx, &Message{User: user, Sender: SenderBot, Type: TypeText, Text: text}); err != nil {
		s.logger.Warn("save outbound failed", zap.String("user", user), zap.Error(err))
	}
	return nil
}

// Resume hands the conversation back to the bot.
func (s *service) Resume(ctx context.Context, user string) error {
	user = NormalizePhone(user)
	if user == "" {
		return errors.New("whatsapp: empty user")
	}
	s.Survey.Resume(ctx, user)
	if err := s.Prospects.SetHumanHelp(ctx, user, false); err != nil {
		s.logger.Warn("clear human help failed", zap.String("user", user), zap.Error(err))
	}
	s.logger.Info("bot resumed", zap.String("user", user))
	return nil
}

func (s *service) Stats() debounce.Stats {
	return s.Debouncer.Stats()
}

func short(s string) string {
	r := []rune(s)
	if len(r) > 180 {
		return string(r[:180]) + "..."
	}
	return s
}
