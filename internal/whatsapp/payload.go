package whatsapp

import (
	"strconv"
	"time"
)

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string      `json:"field"`
			Value changeValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type changeValue struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []inboundMessage `json:"messages"`
}

type inboundMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Button *struct {
		Text string `json:"text"`
	} `json:"button"`
	Interactive *struct {
		ButtonReply *struct {
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// messages flattens every user message in the payload. Status callbacks
// and other fields produce nothing.
func (p *webhookPayload) messages() []*Message {
	var out []*Message
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			names := make(map[string]string, len(c.Value.Contacts))
			for _, ct := range c.Value.Contacts {
				names[ct.WaID] = ct.Profile.Name
			}
			for _, m := range c.Value.Messages {
				out = append(out, m.toMessage(names[m.From]))
			}
		}
	}
	return out
}

func (m inboundMessage) toMessage(profileName string) *Message {
	msg := &Message{
		ID:          m.ID,
		From:        m.From,
		ProfileName: profileName,
		Type:        m.Type,
		Sender:      SenderClient,
		CreatedAt:   time.Now().UTC(),
	}
	if ts, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
		msg.CreatedAt = time.Unix(ts, 0).UTC()
	}

	switch {
	case m.Type == "text" && m.Text != nil:
		msg.Text = m.Text.Body
	case m.Type == "button" && m.Button != nil:
		msg.Type, msg.Text = TypeText, m.Button.Text
	case m.Type == "interactive" && m.Interactive != nil && m.Interactive.ButtonReply != nil:
		msg.Type, msg.Text = TypeText, m.Interactive.ButtonReply.Title
	case m.Type == "interactive" && m.Interactive != nil && m.Interactive.ListReply != nil:
		msg.Type, msg.Text = TypeText, m.Interactive.ListReply.Title
	}
	return msg
}
