package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/ai360/internal/docqa"
	"github.com/xxxsen/ai360/internal/pkg/errcode"
	"github.com/xxxsen/ai360/internal/pkg/response"
	"github.com/xxxsen/ai360/internal/service"
)

type ChatHandler struct {
	chat           *service.ChatService
	maxUploadBytes int64
}

func NewChatHandler(chat *service.ChatService, maxUploadBytes int64) *ChatHandler {
	return &ChatHandler{chat: chat, maxUploadBytes: maxUploadBytes}
}

type textRequest struct {
	Text string `json:"text"`
}

type imageQueryRequest struct {
	Prompt string `json:"prompt"`
}

type pdfQueryRequest struct {
	Question string `json:"question"`
}

func (h *ChatHandler) TextQuery(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	msgs, err := h.chat.SendText(c.Request.Context(), getSession(c), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": renderMessages(msgs)})
}

func (h *ChatHandler) ImageUpload(c *gin.Context) {
	limitBody(c, h.maxUploadBytes)
	file, err := c.FormFile("file")
	if err != nil {
		h.uploadError(c, err, "image file is required")
		return
	}
	data, err := readFormFile(file)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	info, err := h.chat.UploadImage(c.Request.Context(), getSession(c), file.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *ChatHandler) ImageQuery(c *gin.Context) {
	var req imageQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	msgs, err := h.chat.SendImageQuery(c.Request.Context(), getSession(c), req.Prompt)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": renderMessages(msgs)})
}

func (h *ChatHandler) ImageDescribe(c *gin.Context) {
	msgs, err := h.chat.DescribeImage(c.Request.Context(), getSession(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": renderMessages(msgs)})
}

// PDFProcess accepts any number of files under the "files" field; zero files is
// reported by the service so the check stays in one place.
func (h *ChatHandler) PDFProcess(c *gin.Context) {
	limitBody(c, h.maxUploadBytes)
	var docs []docqa.Document
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.uploadError(c, err, "invalid upload")
		return
	}
	if form != nil {
		for _, fh := range form.File["files"] {
			data, err := readFormFile(fh)
			if err != nil {
				response.Error(c, errcode.ErrInvalidFile, "failed to read file")
				return
			}
			docs = append(docs, docqa.Document{Name: fh.Filename, Data: data})
		}
	}
	res, err := h.chat.ProcessDocuments(c.Request.Context(), getSession(c), docs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Processing complete.", "result": res})
}

func (h *ChatHandler) PDFQuery(c *gin.Context) {
	var req pdfQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	msgs, answer, err := h.chat.SendPDFQuery(c.Request.Context(), getSession(c), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	data := gin.H{"messages": renderMessages(msgs)}
	if answer != nil {
		data["sources"] = answer.Sources
	}
	response.Success(c, data)
}

func (h *ChatHandler) uploadError(c *gin.Context, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, errcode.ErrInvalidFile, "upload exceeds the "+formatUploadLimit(h.maxUploadBytes)+" limit")
		return
	}
	response.Error(c, errcode.ErrInvalidFile, msg)
}
