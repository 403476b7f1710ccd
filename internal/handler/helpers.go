package handler

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/middleware"
	"github.com/xxxsen/ai360/internal/model"
	"github.com/xxxsen/ai360/internal/pkg/errcode"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
	"github.com/xxxsen/ai360/internal/pkg/response"
)

func getSession(c *gin.Context) *model.Session {
	return middleware.SessionFrom(c)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, msg := errorCode(err)
	fields := []zap.Field{
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("code", code),
		zap.Error(err),
	}
	if sess := getSession(c); sess != nil {
		fields = append(fields, zap.String("session", sess.ID))
	}
	logger := logutil.GetLogger(c.Request.Context())
	if code == errcode.ErrInternal || code == errcode.ErrAIFailed || code == errcode.ErrAIUnavailable {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}
	response.Error(c, code, msg)
}

// errorCode picks the envelope code and the text shown to the user.
// Backend failures never leak provider error text.
func errorCode(err error) (int, string) {
	userMsg := appErr.Message(err)
	pick := func(fallback string) string {
		if userMsg != "" {
			return userMsg
		}
		return fallback
	}
	switch {
	case errors.Is(err, ai.ErrUnavailable):
		return errcode.ErrAIUnavailable, "AI backend is not configured."
	case errors.Is(err, appErr.ErrBackend):
		return errcode.ErrAIFailed, "The AI backend failed to answer. Please try again."
	case errors.Is(err, appErr.ErrNoIndex):
		return errcode.ErrNoIndex, pick("No processed documents found. Please upload and process PDF files first.")
	case errors.Is(err, appErr.ErrNoImage):
		return errcode.ErrNoImage, pick("Please upload an image first.")
	case errors.Is(err, appErr.ErrNoDocuments):
		return errcode.ErrNoDocuments, pick("Please upload at least one PDF file before processing.")
	case errors.Is(err, appErr.ErrUnauthorized):
		return errcode.ErrUnauthorized, pick("unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		return errcode.ErrForbidden, pick("forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		return errcode.ErrNotFound, pick("not found")
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid, pick("invalid request")
	case errors.Is(err, appErr.ErrConflict):
		return errcode.ErrConflict, pick("conflict")
	case errors.Is(err, appErr.ErrTooMany):
		return errcode.ErrTooMany, pick("too many requests")
	default:
		return errcode.ErrInternal, "internal error"
	}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
