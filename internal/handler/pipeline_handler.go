package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/errcode"
	"github.com/xxxsen/unmask/internal/pkg/response"
	"github.com/xxxsen/unmask/internal/service"
)

type PipelineHandler struct {
	tags     *service.TagService
	vectors  *service.VectorizeService
	analysis *service.AnalysisService
}

func NewPipelineHandler(tags *service.TagService, vectors *service.VectorizeService, analysis *service.AnalysisService) *PipelineHandler {
	return &PipelineHandler{tags: tags, vectors: vectors, analysis: analysis}
}

func (h *PipelineHandler) TagMessages(c *gin.Context) {
	report, err := h.tags.TagAll(c.Request.Context())
	writeReport(c, report, err)
}

func (h *PipelineHandler) Vectorize(c *gin.Context) {
	report, err := h.vectors.Vectorize(c.Request.Context())
	writeReport(c, report, err)
}

func (h *PipelineHandler) SearchTags(c *gin.Context) {
	minIntensity, err := queryInt(c, "min_intensity", 0)
	if err != nil {
		handleError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		handleError(c, err)
		return
	}
	q := model.TagQuery{
		Category:     model.Category(strings.TrimSpace(c.Query("category"))),
		Type:         strings.TrimSpace(c.Query("type")),
		Sender:       strings.TrimSpace(c.Query("sender")),
		MinIntensity: minIntensity,
		Limit:        limit,
	}
	hits, err := h.tags.Search(c.Request.Context(), q)
	if err != nil {
		handleError(c, err)
		return
	}
	if hits == nil {
		hits = []model.TagHit{}
	}
	response.Success(c, gin.H{"results": hits, "search_params": q})
}

type analyzeRequest struct {
	TagCategory string `json:"tag_category"`
}

func (h *PipelineHandler) AnalyzeTags(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	out, err := h.analysis.AnalyzeKind(c.Request.Context(), strings.TrimSpace(req.TagCategory))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}
