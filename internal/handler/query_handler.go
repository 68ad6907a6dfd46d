package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/unmask/internal/pkg/errcode"
	"github.com/xxxsen/unmask/internal/pkg/response"
	"github.com/xxxsen/unmask/internal/service"
)

type QueryHandler struct {
	insights *service.InsightService
}

func NewQueryHandler(insights *service.InsightService) *QueryHandler {
	return &QueryHandler{insights: insights}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req service.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if c.Query("render") == service.RenderHTML {
		req.Render = service.RenderHTML
	}
	out, err := h.insights.Query(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}
