package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/ai360/internal/pkg/errcode"
	"github.com/xxxsen/ai360/internal/pkg/response"
	"github.com/xxxsen/ai360/internal/service"
)

type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionService
}

func NewAuthHandler(auth *service.AuthService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// Credentials are passed through untouched; matching is exact.
type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	sess := getSession(c)
	if err := h.auth.Signup(c.Request.Context(), sess, req.Username, req.Password); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": "Signup successful. Please log in.",
		"state":   h.sessions.State(sess),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	sess := getSession(c)
	if err := h.auth.Login(c.Request.Context(), sess, req.Username, req.Password); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": "Login successful!",
		"state":   h.sessions.State(sess),
	})
}
