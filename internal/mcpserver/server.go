// Package mcpserver exposes tag search, insight queries and chunk lookup as
// MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/service"
)

type ServerConfig struct {
	Tags     *service.TagService
	Insights *service.InsightService
	Chunks   *service.ChunkService
	Version  string
}

func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	s := server.NewMCPServer("unmask", ver, server.WithToolCapabilities(false))
	if cfg.Tags != nil {
		registerSearchTagsTool(s, cfg.Tags)
	}
	if cfg.Insights != nil {
		registerQueryTool(s, cfg.Insights)
	}
	if cfg.Chunks != nil {
		registerGetChunksTool(s, cfg.Chunks)
	}
	return s
}

func Serve(cfg ServerConfig) error {
	return server.ServeStdio(NewServer(cfg))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func optionalString(req mcp.CallToolRequest, name string) string {
	v, err := req.RequireString(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func optionalInt(req mcp.CallToolRequest, name string) int {
	v, err := req.RequireFloat(name)
	if err != nil {
		return 0
	}
	return int(v)
}

func registerSearchTagsTool(s *server.MCPServer, tags *service.TagService) {
	tool := mcp.NewTool("unmask_search_tags",
		mcp.WithDescription("Search tagged messages, newest first. Filter by tag category, type, sender and minimum intensity."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("category",
			mcp.Description("Tag category"),
			mcp.Enum("emotional", "conflict", "relationship_dynamic", "communication_pattern", "person_reference", "ex_reference"),
		),
		mcp.WithString("type", mcp.Description("Tag type, e.g. love, escalation, pursuit")),
		mcp.WithString("sender", mcp.Description("Sender name; \"Me\" matches the owner's messages")),
		mcp.WithNumber("min_intensity", mcp.Description("Minimum tag intensity 0-10")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 100)")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		hits, err := tags.Search(ctx, model.TagQuery{
			Category:     model.Category(optionalString(req, "category")),
			Type:         optionalString(req, "type"),
			Sender:       optionalString(req, "sender"),
			MinIntensity: optionalInt(req, "min_intensity"),
			Limit:        optionalInt(req, "limit"),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search error: %v", err)), nil
		}
		if hits == nil {
			hits = []model.TagHit{}
		}
		return jsonResult(hits)
	})
}

func registerQueryTool(s *server.MCPServer, insights *service.InsightService) {
	tool := mcp.NewTool("unmask_query",
		mcp.WithDescription("Retrieve the conversation chunks most similar to a question and generate insights over them."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query", mcp.Required(), mcp.Description("Question about the conversation history")),
		mcp.WithNumber("top_k", mcp.Description("Number of chunks to retrieve (default 10)")),
		mcp.WithString("context_type", mcp.Description("Only retrieve chunks of this context type")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}
		out, err := insights.Query(ctx, service.QueryRequest{
			Query:   query,
			TopK:    optionalInt(req, "top_k"),
			Filters: service.QueryFilters{ContextType: model.ContextType(optionalString(req, "context_type"))},
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query error: %v", err)), nil
		}
		return jsonResult(out)
	})
}

func registerGetChunksTool(s *server.MCPServer, chunks *service.ChunkService) {
	tool := mcp.NewTool("unmask_get_chunks",
		mcp.WithDescription("Fetch stored conversation chunks by id. Unknown ids are listed as missing."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma separated chunk ids, e.g. chunk_1,chunk_2")),
	)
	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("ids")
		if err != nil {
			return mcp.NewToolResultError("ids is required"), nil
		}
		out, err := chunks.GetMany(ctx, strings.Split(raw, ","))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup error: %v", err)), nil
		}
		return jsonResult(out)
	})
}
