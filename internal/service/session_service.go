package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

// SessionState is the client view of a session.
type SessionState struct {
	ID          string                       `json:"id"`
	Auth        model.AuthState              `json:"auth"`
	Username    string                       `json:"username,omitempty"`
	Mode        model.Mode                   `json:"mode"`
	Image       *ImageInfo                   `json:"image,omitempty"`
	Transcripts map[model.TranscriptKind]int `json:"transcripts"`
	Ctime       int64                        `json:"ctime"`
	Mtime       int64                        `json:"mtime"`
}

type ImageInfo struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
}

type SessionService struct{}

func NewSessionService() *SessionService {
	return &SessionService{}
}

func (s *SessionService) State(sess *model.Session) *SessionState {
	state := &SessionState{
		ID:       sess.ID,
		Auth:     sess.Auth,
		Username: sess.Username,
		Mode:     sess.Mode,
		Ctime:    sess.Ctime,
		Mtime:    sess.Mtime,
		Transcripts: map[model.TranscriptKind]int{
			model.TranscriptText:  sess.Transcript(model.TranscriptText).Len(),
			model.TranscriptImage: sess.Transcript(model.TranscriptImage).Len(),
			model.TranscriptPDF:   sess.Transcript(model.TranscriptPDF).Len(),
		},
	}
	if img := sess.ActiveImage; img != nil {
		state.Image = imageInfo(img)
	}
	return state
}

// SelectMode activates exactly one feature. "none" cannot be selected.
func (s *SessionService) SelectMode(ctx context.Context, sess *model.Session, raw string) error {
	if !sess.Authenticated() {
		return appErr.WithMessage(appErr.ErrUnauthorized, msgLoginRequired)
	}
	mode, ok := model.ParseMode(raw)
	if !ok {
		return appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("unknown mode %q, expected text, image, pdf or about", raw))
	}
	if sess.Mode != mode {
		logutil.GetLogger(ctx).Debug("mode selected", zap.String("from", string(sess.Mode)), zap.String("to", string(mode)))
	}
	sess.Mode = mode
	sess.Mtime = time.Now().Unix()
	return nil
}

func (s *SessionService) Transcript(sess *model.Session, raw string) ([]model.ChatMessage, error) {
	if !sess.Authenticated() {
		return nil, appErr.WithMessage(appErr.ErrUnauthorized, msgLoginRequired)
	}
	kind, ok := model.ParseTranscriptKind(raw)
	if !ok {
		return nil, appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("unknown transcript %q", raw))
	}
	return sess.Transcript(kind).Snapshot(), nil
}

func imageInfo(img *model.Image) *ImageInfo {
	return &ImageInfo{
		Name:     img.Name,
		MIMEType: img.MIMEType,
		Width:    img.Width,
		Height:   img.Height,
		Size:     len(img.Data),
	}
}
