package survey

import (
	"strings"

	"github.com/Vovarama1992/motos-credit-bridge/internal/scoring"
)

// HandoffPrefix marks a response that must not reach the user verbatim:
// the rest of the string is the escalation reason.
const HandoffPrefix = "HANDOFF_TRIGGERED:"

type Reply struct {
	// Text is safe to show to the user. It may be empty on a handoff, in
	// which case the router picks its own wording.
	Text     string
	Handoff  bool
	Reason   string
	Decision *scoring.Decision
}

// Wire renders the reply in its single-string form.
func (r Reply) Wire() string {
	if r.Handoff {
		return HandoffPrefix + r.Reason
	}
	return r.Text
}

// ParseHandoff detects the reserved prefix in a raw response.
func ParseHandoff(s string) (reason string, ok bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, HandoffPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, HandoffPrefix)), true
}
