package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/pkg/errcode"
	"github.com/xxxsen/ai360/internal/pkg/jwt"
	"github.com/xxxsen/ai360/internal/pkg/response"
	"github.com/xxxsen/ai360/internal/service"
	"github.com/xxxsen/ai360/internal/session"
)

const sessionTokenTTL = 24 * time.Hour

type SessionHandler struct {
	store    *session.Store
	sessions *service.SessionService
	secret   []byte
}

func NewSessionHandler(store *session.Store, sessions *service.SessionService, secret []byte) *SessionHandler {
	return &SessionHandler{store: store, sessions: sessions, secret: secret}
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	sess := h.store.Create()
	token, err := jwt.GenerateToken(sess.ID, h.secret, sessionTokenTTL)
	if err != nil {
		handleError(c, err)
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("session created",
		zap.String("session", sess.ID),
		zap.Int("live_sessions", h.store.Count()),
	)
	response.Success(c, gin.H{"token": token, "state": h.sessions.State(sess)})
}

func (h *SessionHandler) Get(c *gin.Context) {
	response.Success(c, h.sessions.State(getSession(c)))
}

func (h *SessionHandler) SelectMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	sess := getSession(c)
	if err := h.sessions.SelectMode(c.Request.Context(), sess, req.Mode); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.sessions.State(sess))
}

func (h *SessionHandler) Transcript(c *gin.Context) {
	kind := c.Param("kind")
	msgs, err := h.sessions.Transcript(getSession(c), kind)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"kind": kind, "messages": renderMessages(msgs)})
}
