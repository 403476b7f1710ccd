package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/model"
	"github.com/xxxsen/ai360/internal/pkg/errcode"
	"github.com/xxxsen/ai360/internal/pkg/jwt"
	"github.com/xxxsen/ai360/internal/pkg/response"
)

const ContextSessionKey = "session"

type SessionLoader interface {
	Get(id string) (*model.Session, bool)
}

// SessionAuth resolves the bearer token to a live session and holds the
// session lock until the handler chain returns.
func SessionAuth(secret []byte, sessions SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, errcode.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		sess, ok := sessions.Get(claims.SessionID)
		if !ok {
			logutil.GetLogger(c.Request.Context()).Debug("session expired", zap.String("session", claims.SessionID))
			response.Error(c, errcode.ErrUnauthorized, "session expired, please start a new session")
			c.Abort()
			return
		}
		sess.Lock()
		defer sess.Unlock()
		c.Set(ContextSessionKey, sess)
		c.Next()
	}
}

func SessionFrom(c *gin.Context) *model.Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*model.Session)
	return sess
}
