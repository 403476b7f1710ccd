package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/docqa"
	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
	"github.com/xxxsen/ai360/internal/repo"
)

type stubText struct {
	answer string
	err    error
	calls  int
}

func (s *stubText) Chat(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.answer, s.err
}

type stubVision struct {
	answer  string
	err     error
	prompts []string
}

func (s *stubVision) AnalyzeImage(ctx context.Context, prompt string, img *ai.ImageInput) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

type stubDocs struct {
	processed [][]docqa.Document
	answer    string
	err       error
}

func (s *stubDocs) Process(ctx context.Context, docs []docqa.Document) (*docqa.ProcessResult, error) {
	s.processed = append(s.processed, docs)
	return &docqa.ProcessResult{Documents: len(docs), Chunks: 1}, nil
}

func (s *stubDocs) Query(ctx context.Context, question string) (*docqa.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &docqa.Answer{Text: s.answer}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func authedSession(t *testing.T, mode model.Mode) *model.Session {
	t.Helper()
	sess := model.NewSession("s1", 1)
	sess.Auth = model.AuthAuthenticated
	sess.Username = "alice"
	sess.Mode = mode
	return sess
}

func TestSignupLoginFlow(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(repo.NewMemoryAccountRepo())
	sess := model.NewSession("s1", 1)

	err := auth.Login(ctx, sess, "alice", "pw1")
	require.ErrorIs(t, err, appErr.ErrForbidden)
	require.Equal(t, msgSignupFirst, err.Error())

	err = auth.Signup(ctx, sess, "", "pw1")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, model.AuthAwaitingSignup, sess.Auth)

	require.NoError(t, auth.Signup(ctx, sess, "alice", "pw1"))
	require.Equal(t, model.AuthAwaitingLogin, sess.Auth)

	err = auth.Signup(ctx, sess, "bob", "pw2")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	err = auth.Login(ctx, sess, "alice", "wrong")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	require.Equal(t, msgLoginFailed, appErr.Message(err))
	require.Equal(t, model.AuthAwaitingLogin, sess.Auth)

	err = auth.Login(ctx, sess, "Alice", "pw1")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	require.NoError(t, auth.Login(ctx, sess, "alice", "pw1"))
	require.True(t, sess.Authenticated())
	require.Equal(t, "alice", sess.Username)

	err = auth.Login(ctx, sess, "alice", "pw1")
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestSignupDuplicateKeepsOriginalPassword(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(repo.NewMemoryAccountRepo())
	require.NoError(t, auth.Signup(ctx, model.NewSession("a", 1), "alice", "pw1"))

	other := model.NewSession("b", 1)
	err := auth.Signup(ctx, other, "alice", "pw2")
	require.ErrorIs(t, err, appErr.ErrConflict)
	require.Equal(t, msgSignupTaken, appErr.Message(err))
	require.Equal(t, model.AuthAwaitingSignup, other.Auth)

	require.NoError(t, auth.Verify(ctx, "alice", "pw1"))
	require.Error(t, auth.Verify(ctx, "alice", "pw2"))
}

func TestSignupAcceptsLongPassword(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(repo.NewMemoryAccountRepo())
	long := strings.Repeat("p", 73)

	sess := model.NewSession("s1", 1)
	require.NoError(t, auth.Signup(ctx, sess, "alice", long))

	err := auth.Login(ctx, sess, "alice", long[:72]+"q")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	require.Equal(t, model.AuthAwaitingLogin, sess.Auth)

	require.NoError(t, auth.Login(ctx, sess, "alice", long))
	require.True(t, sess.Authenticated())
}

func TestSelectMode(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService()

	sess := model.NewSession("s1", 1)
	require.ErrorIs(t, svc.SelectMode(ctx, sess, "text"), appErr.ErrUnauthorized)

	sess = authedSession(t, model.ModeNone)
	require.ErrorIs(t, svc.SelectMode(ctx, sess, "none"), appErr.ErrInvalid)
	require.ErrorIs(t, svc.SelectMode(ctx, sess, "video"), appErr.ErrInvalid)
	require.Equal(t, model.ModeNone, sess.Mode)

	require.NoError(t, svc.SelectMode(ctx, sess, "image"))
	require.NoError(t, svc.SelectMode(ctx, sess, "pdf"))
	require.Equal(t, model.ModePDF, sess.Mode)
}

func TestTextChatScenario(t *testing.T) {
	ctx := context.Background()
	text := &stubText{answer: "A stub reply."}
	chat := NewChatService(text, &stubVision{}, &stubDocs{})
	sessions := NewSessionService()
	sess := authedSession(t, model.ModeNone)

	_, err := chat.SendText(ctx, sess, "Hello")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	require.NoError(t, sessions.SelectMode(ctx, sess, "text"))
	msgs, err := chat.SendText(ctx, sess, "Hello")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, model.RoleUser, msgs[0].Role)
	require.Equal(t, "Hello", msgs[0].Text)
	require.Equal(t, "A stub reply.", msgs[1].Text)

	msgs, err = chat.SendText(ctx, sess, "   ")
	require.NoError(t, err)
	require.Empty(t, msgs)
	require.Equal(t, 1, text.calls)

	require.NoError(t, sessions.SelectMode(ctx, sess, "pdf"))
	require.NoError(t, sessions.SelectMode(ctx, sess, "text"))
	history, err := sessions.Transcript(sess, "text")
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestTextChatBackendFailureAppendsNothing(t *testing.T) {
	chat := NewChatService(&stubText{err: errors.New("boom")}, &stubVision{}, &stubDocs{})
	sess := authedSession(t, model.ModeText)
	_, err := chat.SendText(context.Background(), sess, "Hello")
	require.ErrorIs(t, err, appErr.ErrBackend)
	require.Equal(t, 0, sess.Transcript(model.TranscriptText).Len())
}

func TestImageFlow(t *testing.T) {
	ctx := context.Background()
	vision := &stubVision{answer: "A red pixel."}
	chat := NewChatService(&stubText{}, vision, &stubDocs{})
	sess := authedSession(t, model.ModeImage)

	_, err := chat.SendImageQuery(ctx, sess, "what is this?")
	require.ErrorIs(t, err, appErr.ErrNoImage)
	_, err = chat.SendImageQuery(ctx, sess, "")
	require.ErrorIs(t, err, appErr.ErrNoImage)

	_, err = chat.UploadImage(ctx, sess, "notes.gif", pngBytes(t, 2, 2))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = chat.UploadImage(ctx, sess, "fake.png", []byte("not an image"))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Nil(t, sess.ActiveImage)

	info, err := chat.UploadImage(ctx, sess, "dot.png", pngBytes(t, 3, 2))
	require.NoError(t, err)
	require.Equal(t, "image/png", info.MIMEType)
	require.Equal(t, 3, info.Width)
	require.Equal(t, 2, info.Height)

	msgs, err := chat.SendImageQuery(ctx, sess, "  ")
	require.NoError(t, err)
	require.Empty(t, msgs)

	msgs, err = chat.SendImageQuery(ctx, sess, "what is this?")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "A red pixel.", msgs[1].Text)

	msgs, err = chat.DescribeImage(ctx, sess)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, model.RoleBot, msgs[0].Role)
	require.Equal(t, 3, sess.Transcript(model.TranscriptImage).Len())
	require.Equal(t, []string{"what is this?", ""}, vision.prompts)
}

func TestPDFFlow(t *testing.T) {
	ctx := context.Background()
	docs := &stubDocs{answer: "Paris"}
	chat := NewChatService(&stubText{}, &stubVision{}, docs)
	sess := authedSession(t, model.ModePDF)

	_, err := chat.ProcessDocuments(ctx, sess, nil)
	require.ErrorIs(t, err, appErr.ErrNoDocuments)
	require.Empty(t, docs.processed)

	res, err := chat.ProcessDocuments(ctx, sess, []docqa.Document{{Name: "a.txt", Data: []byte("The capital of France is Paris.")}})
	require.NoError(t, err)
	require.Equal(t, 1, res.Documents)

	msgs, _, err := chat.SendPDFQuery(ctx, sess, "")
	require.NoError(t, err)
	require.Empty(t, msgs)

	msgs, answer, err := chat.SendPDFQuery(ctx, sess, "What is the capital of France?")
	require.NoError(t, err)
	require.Equal(t, "Paris", answer.Text)
	require.Len(t, msgs, 2)
	require.Equal(t, "What is the capital of France?", msgs[0].Text)

	docs.err = appErr.ErrNoIndex
	_, _, err = chat.SendPDFQuery(ctx, sess, "again?")
	require.ErrorIs(t, err, appErr.ErrNoIndex)
	require.Equal(t, 2, sess.Transcript(model.TranscriptPDF).Len())
}

func TestAboutPage(t *testing.T) {
	about := NewAboutService(config.AboutConfig{Creator: "Jane", Contact: []string{"hello@example.com"}})
	sess := authedSession(t, model.ModeText)
	_, err := about.Get(sess)
	require.ErrorIs(t, err, appErr.ErrForbidden)

	sess.Mode = model.ModeAbout
	page, err := about.Get(sess)
	require.NoError(t, err)
	require.Len(t, page.Sections, 4)
	require.Contains(t, page.Sections[2].Body, "Jane")
	require.Equal(t, "hello@example.com", page.Sections[3].Body)
}
