package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/unmask/internal/pkg/errcode"
	"github.com/xxxsen/unmask/internal/pkg/response"
	"github.com/xxxsen/unmask/internal/service"
)

type ChunkHandler struct {
	chunks *service.ChunkService
	export *service.ExportService
}

func NewChunkHandler(chunks *service.ChunkService, export *service.ExportService) *ChunkHandler {
	return &ChunkHandler{chunks: chunks, export: export}
}

func (h *ChunkHandler) Get(c *gin.Context) {
	chunk, err := h.chunks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chunk)
}

func (h *ChunkHandler) List(c *gin.Context) {
	out, err := h.chunks.GetMany(c.Request.Context(), splitList(c.Query("ids")))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}

type exportRequest struct {
	Key string `json:"key"`
}

func (h *ChunkHandler) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	out, err := h.export.ExportChunks(c.Request.Context(), req.Key)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}
