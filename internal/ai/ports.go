package ai

import "context"

// AI is the generative fallback. It knows nothing about WhatsApp or storage.
type AI interface {
	GetReply(ctx context.Context, systemPrompt string, history []Message) (string, error)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role Role
	Text string
}
