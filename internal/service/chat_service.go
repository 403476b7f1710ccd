package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/docqa"
	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

const (
	msgUploadImageFirst = "Please upload an image first."
	msgImageType        = "Please upload a jpg, jpeg or png image."
	msgUploadDocsFirst  = "Please upload at least one PDF file before processing."
)

var modeLabels = map[model.Mode]string{
	model.ModeText:  "text chat",
	model.ModeImage: "image analysis",
	model.ModePDF:   "PDF analysis",
	model.ModeAbout: "about",
}

type TextBackend interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type VisionBackend interface {
	AnalyzeImage(ctx context.Context, prompt string, img *ai.ImageInput) (string, error)
}

type DocumentQA interface {
	Process(ctx context.Context, docs []docqa.Document) (*docqa.ProcessResult, error)
	Query(ctx context.Context, question string) (*docqa.Answer, error)
}

// ChatService runs the feature actions. Every method expects the caller to hold
// the session lock and performs at most one backend call.
type ChatService struct {
	text   TextBackend
	vision VisionBackend
	docs   DocumentQA
}

func NewChatService(text TextBackend, vision VisionBackend, docs DocumentQA) *ChatService {
	return &ChatService{text: text, vision: vision, docs: docs}
}

// SendText returns the messages it appended; blank input appends nothing.
func (s *ChatService) SendText(ctx context.Context, sess *model.Session, text string) ([]model.ChatMessage, error) {
	if err := requireMode(sess, model.ModeText); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	answer, err := s.text.Chat(ctx, text)
	if err != nil {
		logutil.GetLogger(ctx).Error("text chat failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, backendError(err)
	}
	return appendExchange(sess, model.TranscriptText, text, answer), nil
}

func (s *ChatService) UploadImage(ctx context.Context, sess *model.Session, name string, data []byte) (*ImageInfo, error) {
	if err := requireMode(sess, model.ModeImage); err != nil {
		return nil, err
	}
	img, err := decodeImage(name, data)
	if err != nil {
		return nil, err
	}
	sess.ActiveImage = img
	sess.Mtime = time.Now().Unix()
	logutil.GetLogger(ctx).Info("image uploaded",
		zap.String("session", sess.ID),
		zap.String("mime", img.MIMEType),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
	)
	return imageInfo(img), nil
}

// SendImageQuery requires an image even for a blank prompt; a blank prompt is otherwise a no-op.
func (s *ChatService) SendImageQuery(ctx context.Context, sess *model.Session, prompt string) ([]model.ChatMessage, error) {
	if err := requireMode(sess, model.ModeImage); err != nil {
		return nil, err
	}
	if sess.ActiveImage == nil {
		return nil, appErr.WithMessage(appErr.ErrNoImage, msgUploadImageFirst)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, nil
	}
	answer, err := s.vision.AnalyzeImage(ctx, prompt, imageInput(sess.ActiveImage))
	if err != nil {
		logutil.GetLogger(ctx).Error("image query failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, backendError(err)
	}
	return appendExchange(sess, model.TranscriptImage, prompt, answer), nil
}

// DescribeImage sends the image without a prompt and records only the answer.
func (s *ChatService) DescribeImage(ctx context.Context, sess *model.Session) ([]model.ChatMessage, error) {
	if err := requireMode(sess, model.ModeImage); err != nil {
		return nil, err
	}
	if sess.ActiveImage == nil {
		return nil, appErr.WithMessage(appErr.ErrNoImage, msgUploadImageFirst)
	}
	answer, err := s.vision.AnalyzeImage(ctx, "", imageInput(sess.ActiveImage))
	if err != nil {
		logutil.GetLogger(ctx).Error("image describe failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, backendError(err)
	}
	now := time.Now().Unix()
	tr := sess.Transcript(model.TranscriptImage)
	tr.AppendBot(answer, now)
	sess.Mtime = now
	return tr.Messages[tr.Len()-1:], nil
}

func (s *ChatService) ProcessDocuments(ctx context.Context, sess *model.Session, docs []docqa.Document) (*docqa.ProcessResult, error) {
	if err := requireMode(sess, model.ModePDF); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, appErr.WithMessage(appErr.ErrNoDocuments, msgUploadDocsFirst)
	}
	res, err := s.docs.Process(ctx, docs)
	if err != nil {
		logutil.GetLogger(ctx).Error("process documents failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, err
	}
	sess.Mtime = time.Now().Unix()
	return res, nil
}

func (s *ChatService) SendPDFQuery(ctx context.Context, sess *model.Session, question string) ([]model.ChatMessage, *docqa.Answer, error) {
	if err := requireMode(sess, model.ModePDF); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, nil, nil
	}
	answer, err := s.docs.Query(ctx, question)
	if err != nil {
		logutil.GetLogger(ctx).Warn("pdf query failed", zap.String("session", sess.ID), zap.Error(err))
		return nil, nil, err
	}
	return appendExchange(sess, model.TranscriptPDF, question, answer.Text), answer, nil
}

// backendError marks a failed AI call unless the input itself was rejected.
func backendError(err error) error {
	if errors.Is(err, appErr.ErrInvalid) {
		return err
	}
	return appErr.Backend(err)
}

func requireMode(sess *model.Session, mode model.Mode) error {
	if !sess.Authenticated() {
		return appErr.WithMessage(appErr.ErrUnauthorized, msgLoginRequired)
	}
	if sess.Mode != mode {
		return appErr.WithMessage(appErr.ErrForbidden, fmt.Sprintf("Select %s first.", modeLabels[mode]))
	}
	return nil
}

func appendExchange(sess *model.Session, kind model.TranscriptKind, userText, botText string) []model.ChatMessage {
	now := time.Now().Unix()
	tr := sess.Transcript(kind)
	tr.AppendExchange(userText, botText, now)
	sess.Mtime = now
	return tr.Messages[tr.Len()-2:]
}

func decodeImage(name string, data []byte) (*model.Image, error) {
	if len(data) == 0 {
		return nil, appErr.WithMessage(appErr.ErrInvalid, msgImageType)
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return nil, appErr.WithMessage(appErr.ErrInvalid, msgImageType)
	}
	mime := http.DetectContentType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		return nil, appErr.WithMessage(appErr.ErrInvalid, msgImageType)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, appErr.WithMessage(appErr.ErrInvalid, msgImageType)
	}
	return &model.Image{
		Name:     filepath.Base(name),
		MIMEType: mime,
		Data:     data,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

func imageInput(img *model.Image) *ai.ImageInput {
	return &ai.ImageInput{MIMEType: img.MIMEType, Data: img.Data}
}
