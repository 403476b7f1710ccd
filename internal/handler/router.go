package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/ai360/internal/middleware"
)

type RouterDeps struct {
	Session       *SessionHandler
	Auth          *AuthHandler
	Chat          *ChatHandler
	About         *AboutHandler
	Sessions      middleware.SessionLoader
	JWTSecret     []byte
	AuthRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/session", deps.Session.Create)

	authGroup := api.Group("")
	authGroup.Use(middleware.SessionAuth(deps.JWTSecret, deps.Sessions))
	authGroup.GET("/session", deps.Session.Get)

	limited := authGroup.Group("/auth")
	limited.Use(middleware.RateLimit(deps.AuthRateLimit))
	limited.POST("/signup", deps.Auth.Signup)
	limited.POST("/login", deps.Auth.Login)

	authGroup.PUT("/mode", deps.Session.SelectMode)
	authGroup.GET("/transcripts/:kind", deps.Session.Transcript)

	authGroup.POST("/text/query", deps.Chat.TextQuery)
	authGroup.POST("/image/upload", deps.Chat.ImageUpload)
	authGroup.POST("/image/query", deps.Chat.ImageQuery)
	authGroup.POST("/image/describe", deps.Chat.ImageDescribe)
	authGroup.POST("/pdf/process", deps.Chat.PDFProcess)
	authGroup.POST("/pdf/query", deps.Chat.PDFQuery)

	authGroup.GET("/about", deps.About.Get)
}
