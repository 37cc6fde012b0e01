package whatsapp

import (
	"context"
	"time"

	"github.com/Vovarama1992/motos-credit-bridge/internal/debounce"
	"github.com/Vovarama1992/motos-credit-bridge/internal/survey"
)

type Sender string

const (
	SenderClient Sender = "client"
	SenderBot    Sender = "bot"
)

const TypeText = "text"

// Message is one inbound or outbound chat line. User is the normalized
// national phone number and is the key for every per-user structure.
type Message struct {
	ID          string
	User        string
	From        string
	ProfileName string
	Type        string
	Sender      Sender
	Text        string
	CreatedAt   time.Time
}

type Outbound interface {
	SendText(ctx context.Context, to, text string) error
}

type Repo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetHistory(ctx context.Context, user string, limit int) ([]Message, error)
}

type ProspectRepo interface {
	Touch(ctx context.Context, user, profileName string) error
	RecordFinalizedAnswers(ctx context.Context, user, name, city string) error
	SetHumanHelp(ctx context.Context, user string, requested bool) error
}

type Notifier interface {
	NotifyHandoff(ctx context.Context, user, reason, lastMessage string) error
}

// Surveyor is the part of the survey machine the router drives.
type Surveyor interface {
	Status(ctx context.Context, user string) survey.Status
	Start(ctx context.Context, user string) survey.Reply
	Step(ctx context.Context, user, text string) (survey.Reply, error)
	Pause(ctx context.Context, user string)
	Resume(ctx context.Context, user string)
}

type Debouncer interface {
	Submit(ctx context.Context, user, text, dedupID string, delay time.Duration, flush debounce.FlushFunc) bool
	Stats() debounce.Stats
}

type Service interface {
	HandleIncoming(ctx context.Context, msg *Message) error
	Resume(ctx context.Context, user string) error
	Stats() debounce.Stats
}
