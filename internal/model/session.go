package model

import "sync"

type AuthState string

const (
	AuthAwaitingSignup AuthState = "awaiting_signup"
	AuthAwaitingLogin  AuthState = "awaiting_login"
	AuthAuthenticated  AuthState = "authenticated"
)

// Mode is the single active feature; ModeNone only exists before the first selection.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeText  Mode = "text"
	ModeImage Mode = "image"
	ModePDF   Mode = "pdf"
	ModeAbout Mode = "about"
)

// ParseMode accepts only selectable modes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeText, ModeImage, ModePDF, ModeAbout:
		return Mode(s), true
	default:
		return "", false
	}
}

type Image struct {
	Name     string
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

type Session struct {
	mu sync.Mutex

	ID          string
	Auth        AuthState
	Username    string
	Mode        Mode
	ActiveImage *Image
	Ctime       int64
	Mtime       int64

	transcripts map[TranscriptKind]*Transcript
}

func NewSession(id string, now int64) *Session {
	return &Session{
		ID:    id,
		Auth:  AuthAwaitingSignup,
		Mode:  ModeNone,
		Ctime: now,
		Mtime: now,
		transcripts: map[TranscriptKind]*Transcript{
			TranscriptText:  {Kind: TranscriptText},
			TranscriptImage: {Kind: TranscriptImage},
			TranscriptPDF:   {Kind: TranscriptPDF},
		},
	}
}

// Lock serializes request handling for one session.
func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}

func (s *Session) Transcript(kind TranscriptKind) *Transcript {
	return s.transcripts[kind]
}

func (s *Session) Authenticated() bool {
	return s.Auth == AuthAuthenticated
}
