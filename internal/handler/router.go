package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/unmask/internal/middleware"
	"github.com/xxxsen/unmask/internal/pkg/response"
)

type RouterDeps struct {
	Pipeline  *PipelineHandler
	Query     *QueryHandler
	Chunks    *ChunkHandler
	Messages  *MessageHandler
	JWTSecret []byte
	RateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/search-tags", deps.Pipeline.SearchTags)
	authGroup.POST("/analyze-tags", deps.Pipeline.AnalyzeTags)
	authGroup.GET("/chunks", deps.Chunks.List)
	authGroup.GET("/chunks/:id", deps.Chunks.Get)
	authGroup.POST("/chunks/export", deps.Chunks.Export)
	authGroup.GET("/messages", deps.Messages.List)
	authGroup.GET("/messages/:id", deps.Messages.Get)
	authGroup.POST("/messages/import", deps.Messages.Import)

	limited := authGroup.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimit))
	limited.POST("/tag-messages", deps.Pipeline.TagMessages)
	limited.POST("/vectorize", deps.Pipeline.Vectorize)
	limited.POST("/query", deps.Query.Query)
}
