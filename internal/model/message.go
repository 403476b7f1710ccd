package model

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type ChatMessage struct {
	Role  Role   `json:"role"`
	Text  string `json:"message"`
	Ctime int64  `json:"ctime"`
}

type TranscriptKind string

const (
	TranscriptText  TranscriptKind = "text"
	TranscriptImage TranscriptKind = "image"
	TranscriptPDF   TranscriptKind = "pdf"
)

func ParseTranscriptKind(s string) (TranscriptKind, bool) {
	switch TranscriptKind(s) {
	case TranscriptText, TranscriptImage, TranscriptPDF:
		return TranscriptKind(s), true
	default:
		return "", false
	}
}

// Transcript is append only; messages keep insertion order.
type Transcript struct {
	Kind     TranscriptKind `json:"kind"`
	Messages []ChatMessage  `json:"messages"`
}

func (t *Transcript) Len() int {
	return len(t.Messages)
}

// AppendExchange adds the user turn and its answer together so a failed call never leaves half a pair.
func (t *Transcript) AppendExchange(userText, botText string, now int64) {
	t.Messages = append(t.Messages,
		ChatMessage{Role: RoleUser, Text: userText, Ctime: now},
		ChatMessage{Role: RoleBot, Text: botText, Ctime: now},
	)
}

func (t *Transcript) AppendBot(text string, now int64) {
	t.Messages = append(t.Messages, ChatMessage{Role: RoleBot, Text: text, Ctime: now})
}

// Snapshot copies the messages so callers can render outside the session lock.
func (t *Transcript) Snapshot() []ChatMessage {
	out := make([]ChatMessage, len(t.Messages))
	copy(out, t.Messages)
	return out
}
