package handler

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/unmask/internal/pkg/errcode"
	"github.com/xxxsen/unmask/internal/pkg/response"
	"github.com/xxxsen/unmask/internal/service"
)

type MessageHandler struct {
	messages      *service.MessageService
	imports       *service.ImportService
	maxUploadSize int64
}

func NewMessageHandler(messages *service.MessageService, imports *service.ImportService, maxUploadSize int64) *MessageHandler {
	return &MessageHandler{messages: messages, imports: imports, maxUploadSize: maxUploadSize}
}

func (h *MessageHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		handleError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		handleError(c, err)
		return
	}
	out, err := h.messages.List(c.Request.Context(), page, limit, c.Query("search"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}

func (h *MessageHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid message id")
		return
	}
	out, err := h.messages.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}

func (h *MessageHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, errcode.ErrInvalidFile, "file too large (max "+formatUploadLimit(h.maxUploadSize)+")")
		return
	}
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".csv", ".txt":
	default:
		response.Error(c, errcode.ErrInvalidFile, "csv file required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	out, err := h.imports.ImportUpload(c.Request.Context(), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}
