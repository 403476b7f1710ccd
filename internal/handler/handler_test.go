package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/docqa"
	"github.com/xxxsen/ai360/internal/filestore"
	"github.com/xxxsen/ai360/internal/handler"
	"github.com/xxxsen/ai360/internal/index"
	"github.com/xxxsen/ai360/internal/middleware"
	"github.com/xxxsen/ai360/internal/pkg/errcode"
	"github.com/xxxsen/ai360/internal/repo"
	"github.com/xxxsen/ai360/internal/service"
	"github.com/xxxsen/ai360/internal/session"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type echoGenerator struct {
	prefix string
}

func (g echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.prefix + prompt, nil
}

// groundedAnswerer only answers when the retrieved context carries the fact.
type groundedAnswerer struct{}

func (groundedAnswerer) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Paris is the capital of France") && strings.Contains(prompt, "What is the capital of France?") {
		return "The capital of France is **Paris**.", nil
	}
	return ai.FallbackAnswer, nil
}

type stubVision struct{}

func (stubVision) GenerateWithImage(ctx context.Context, prompt string, img *ai.ImageInput) (string, error) {
	if prompt == "" {
		return "A tiny picture.", nil
	}
	return "You asked: " + prompt, nil
}

type wordEmbedder struct{}

func (wordEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "france")) + 0.01,
		float32(strings.Count(lower, "pasta")) + 0.01,
	}, nil
}

func (wordEmbedder) ModelName() string {
	return "word"
}

type client struct {
	t      *testing.T
	engine http.Handler
	token  string
}

func setupRouter(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := ai.NewManager(
		echoGenerator{prefix: "echo: "},
		stubVision{},
		groundedAnswerer{},
		wordEmbedder{},
		ai.ManagerConfig{Timeout: 5},
	)
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	idx, err := index.New(config.IndexConfig{Type: "file", Key: "doc_index.json"}, index.Deps{Store: store})
	require.NoError(t, err)
	pipeline := docqa.NewPipeline(docqa.Config{ChunkSize: 200, ChunkOverlap: 20, TopK: 2}, manager, manager, idx)

	secret := []byte("test-secret")
	sessionStore := session.NewStore(time.Hour)
	sessions := service.NewSessionService()
	deps := handler.RouterDeps{
		Session:   handler.NewSessionHandler(sessionStore, sessions, secret),
		Auth:      handler.NewAuthHandler(service.NewAuthService(repo.NewMemoryAccountRepo()), sessions),
		Chat:      handler.NewChatHandler(service.NewChatService(manager, manager, pipeline), 1024*1024),
		About:     handler.NewAboutHandler(service.NewAboutService(config.AboutConfig{Creator: "Jane"})),
		Sessions:  sessionStore,
		JWTSecret: secret,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	cl := &client{t: t, engine: engine}
	var created struct {
		Token string `json:"token"`
	}
	cl.decode(cl.send(http.MethodPost, "/api/v1/session", nil, ""), &created)
	require.NotEmpty(t, created.Token)
	cl.token = created.Token
	return cl
}

func (cl *client) send(method, path string, body *bytes.Buffer, contentType string) envelope {
	cl.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	resp := httptest.NewRecorder()
	cl.engine.ServeHTTP(resp, req)
	require.Equal(cl.t, http.StatusOK, resp.Code)
	var env envelope
	require.NoError(cl.t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

func (cl *client) json(method, path string, payload interface{}) envelope {
	cl.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(cl.t, err)
	return cl.send(method, path, bytes.NewBuffer(raw), "application/json")
}

func (cl *client) upload(path, field string, files map[string][]byte) envelope {
	cl.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(cl.t, err)
		_, err = part.Write(data)
		require.NoError(cl.t, err)
	}
	require.NoError(cl.t, w.Close())
	return cl.send(http.MethodPost, path, &buf, w.FormDataContentType())
}

func (cl *client) decode(env envelope, dst interface{}) {
	cl.t.Helper()
	require.Equal(cl.t, 0, env.Code, env.Msg)
	require.NoError(cl.t, json.Unmarshal(env.Data, dst))
}

type messagesData struct {
	Messages []struct {
		Role    string `json:"role"`
		Class   string `json:"class"`
		Message string `json:"message"`
		HTML    string `json:"html"`
	} `json:"messages"`
}

func login(t *testing.T, cl *client) {
	t.Helper()
	require.Equal(t, 0, cl.json(http.MethodPost, "/api/v1/auth/signup", map[string]string{"username": "alice", "password": "pw1"}).Code)
	require.Equal(t, 0, cl.json(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "pw1"}).Code)
}

func TestSessionRequiresToken(t *testing.T) {
	cl := setupRouter(t)
	cl.token = ""
	env := cl.send(http.MethodGet, "/api/v1/session", nil, "")
	require.Equal(t, errcode.ErrUnauthorized, env.Code)
}

func TestAuthFlow(t *testing.T) {
	cl := setupRouter(t)

	env := cl.json(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, errcode.ErrForbidden, env.Code)
	require.Equal(t, "Please sign up first.", env.Msg)

	env = cl.json(http.MethodPost, "/api/v1/auth/signup", map[string]string{"username": "", "password": "pw1"})
	require.Equal(t, errcode.ErrInvalid, env.Code)
	require.Equal(t, "Please provide both username and password.", env.Msg)

	require.Equal(t, 0, cl.json(http.MethodPost, "/api/v1/auth/signup", map[string]string{"username": "alice", "password": "pw1"}).Code)

	other := setupSecondSession(t, cl)
	env = other.json(http.MethodPost, "/api/v1/auth/signup", map[string]string{"username": "alice", "password": "pw2"})
	require.Equal(t, errcode.ErrConflict, env.Code)

	env = cl.json(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "wrong"})
	require.Equal(t, errcode.ErrUnauthorized, env.Code)
	require.Equal(t, "Invalid credentials. Please try again.", env.Msg)

	env = cl.json(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "pw1"})
	var state struct {
		State service.SessionState `json:"state"`
	}
	cl.decode(env, &state)
	require.Equal(t, "alice", state.State.Username)
	require.Equal(t, "authenticated", string(state.State.Auth))
}

func setupSecondSession(t *testing.T, cl *client) *client {
	t.Helper()
	other := &client{t: t, engine: cl.engine}
	var created struct {
		Token string `json:"token"`
	}
	other.decode(other.send(http.MethodPost, "/api/v1/session", nil, ""), &created)
	other.token = created.Token
	return other
}

func TestModeGating(t *testing.T) {
	cl := setupRouter(t)

	env := cl.json(http.MethodPut, "/api/v1/mode", map[string]string{"mode": "text"})
	require.Equal(t, errcode.ErrUnauthorized, env.Code)

	login(t, cl)
	env = cl.json(http.MethodPost, "/api/v1/text/query", map[string]string{"text": "hi"})
	require.Equal(t, errcode.ErrForbidden, env.Code)

	env = cl.json(http.MethodPut, "/api/v1/mode", map[string]string{"mode": "none"})
	require.Equal(t, errcode.ErrInvalid, env.Code)

	require.Equal(t, 0, cl.json(http.MethodPut, "/api/v1/mode", map[string]string{"mode": "about"}).Code)
	var page service.AboutPage
	cl.decode(cl.send(http.MethodGet, "/api/v1/about", nil, ""), &page)
	require.Len(t, page.Sections, 4)
}

func TestTextChat(t *testing.T) {
	cl := setupRouter(t)
	login(t, cl)
	require.Equal(t, 0, cl.json(http.MethodPut, "/api/v1/mode", map[string]string{"mode": "text"}).Code)

	var out messagesData
	cl.decode(cl.json(http.MethodPost, "/api/v1/text/query", map[string]string{"text": "Hello"}), &out)
	require.Len(t, out.Messages, 2)
	require.Equal(t, "chat-user", out.Messages[0].Class)
	require.Equal(t, "chat-bot", out.Messages[1].Class)
	require.Equal(t, "echo: Hello", out.Messages[1].Message)

	cl.decode(cl.json(http.MethodPost, "/api/v1/text/query", map[string]string{"text": "  "}), &out)
	require.Empty(t, out.Messages)

	cl.decode(cl.send(http.MethodGet, "/api/v1/transcripts/text", nil, ""), &out)
	require.Len(t, out.Messages, 2)
	require.Contains(t, out.Messages[1].HTML, "<p>echo: Hello</p>")
}

func TestImageFlow(t *testing.T) {
	cl := setupRouter(t)
	login(t, cl)
	require.Equal(t, 0, cl.json(http.MethodPut, "/api/v1/mode", map[string]string{"mode": "image"}).Code)

	env := cl.json(http.MethodPost, "/api/v1/image/query", map[string]string{"prompt": "what?"})
	require.Equal(t, errcode.ErrNoImage, env.Code)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))))
	env = cl.upload("/api/v1/image/upload", "file", map[string][]byte{"pic.gif": buf.Bytes()})
	require.Equal(t, errcode.ErrInvalid, env.Code)

	var info service.ImageInfo
	cl.decode(cl.upload("/api/v1/image/upload", "file", map[string][]byte{"pic.png": buf.Bytes()}), &info)
	require.Equal(t, 4, info.Width)
	require.Equal(t, 3, info.Height)

	var out messagesData
	cl.decode(cl.json(http.MethodPost, "/api/v1/image/query", map[string]string{"prompt": "what?"}), &out)
	require.Len(t, out.Messages, 2)
	require.Equal(t, "You asked: what?", out.Messages[1].Message)

	cl.decode(cl.send(http.MethodPost, "/api/v1/image/describe", nil, ""), &out)
	require.Len(t, out.Messages, 1)
	require.Equal(t, "A tiny picture.", out.Messages[0].Message)
}

func TestPDFFlow(t *testing.T) {
	cl := setupRouter(t)
	login(t, cl)
	require.Equal(t, 0, cl.json(http.MethodPut, "/api/v1/mode", map[string]string{"mode": "pdf"}).Code)

	env := cl.json(http.MethodPost, "/api/v1/pdf/query", map[string]string{"question": "What is the capital of France?"})
	require.Equal(t, errcode.ErrNoIndex, env.Code)

	env = cl.send(http.MethodPost, "/api/v1/pdf/process", nil, "")
	require.Equal(t, errcode.ErrNoDocuments, env.Code)

	env = cl.upload("/api/v1/pdf/process", "files", map[string][]byte{
		"facts.txt": []byte("Paris is the capital of France."),
		"food.md":   []byte("# Food\n\nPasta is popular in Italy."),
	})
	var processed struct {
		Result docqa.ProcessResult `json:"result"`
	}
	cl.decode(env, &processed)
	require.Equal(t, 2, processed.Result.Documents)
	require.GreaterOrEqual(t, processed.Result.Chunks, 1)

	var out messagesData
	cl.decode(cl.json(http.MethodPost, "/api/v1/pdf/query", map[string]string{"question": "What is the capital of France?"}), &out)
	require.Len(t, out.Messages, 2)
	require.Equal(t, "The capital of France is **Paris**.", out.Messages[1].Message)
	require.Contains(t, out.Messages[1].HTML, "<strong>Paris</strong>")

	cl.decode(cl.json(http.MethodPost, "/api/v1/pdf/query", map[string]string{"question": ""}), &out)
	require.Empty(t, out.Messages)
}
