package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/ai360/internal/pkg/response"
	"github.com/xxxsen/ai360/internal/service"
)

type AboutHandler struct {
	about *service.AboutService
}

func NewAboutHandler(about *service.AboutService) *AboutHandler {
	return &AboutHandler{about: about}
}

func (h *AboutHandler) Get(c *gin.Context) {
	page, err := h.about.Get(getSession(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, page)
}
