package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/unmask/internal/handler"
	"github.com/xxxsen/unmask/internal/job"
	"github.com/xxxsen/unmask/internal/mcpserver"
	"github.com/xxxsen/unmask/internal/middleware"
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/jwt"
	"github.com/xxxsen/unmask/internal/retrieval"
	"github.com/xxxsen/unmask/internal/schedule"
	"github.com/xxxsen/unmask/internal/service"
)

var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "unmask",
		Short:         "message tagging, chunking and retrieval pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	withQuietApp := func(quiet bool, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, quiet)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd.Context(), a, args)
		}
	}
	withApp := func(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return withQuietApp(false, fn)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "run the http api and scheduled jobs",
		RunE:  withApp(runServer),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "import <file.csv>",
		Short: "import a message export",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			res, err := a.importService.ImportUpload(ctx, filepath.Base(args[0]), f, info.Size())
			if err != nil {
				return err
			}
			return printJSON(res)
		}),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "tag",
		Short: "tag every message",
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			return printReport(a.tagService.TagAll(ctx))
		}),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "vectorize",
		Short: "rebuild chunks and the vector index",
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			return printReport(a.vectorizeService.Vectorize(ctx))
		}),
	})
	rootCmd.AddCommand(newQueryCmd(withApp))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "export [key]",
		Short: "export chunks as json lines into the file store",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			res, err := a.exportService.ExportChunks(ctx, key)
			if err != nil {
				return err
			}
			return printJSON(res)
		}),
	})
	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "serve search and query tools over stdio",
		RunE: withQuietApp(true, func(_ context.Context, a *app, _ []string) error {
			return mcpserver.Serve(mcpserver.ServerConfig{
				Tags:     a.tagService,
				Insights: a.insightService,
				Chunks:   a.chunkService,
				Version:  version,
			})
		}),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "token <operator>",
		Short: "issue an api token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, true)
			if err != nil {
				return err
			}
			ttl := time.Hour * time.Duration(cfg.JWTTTLHours)
			token, err := jwt.GenerateToken(args[0], []byte(cfg.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

type appRunner func(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error

func newQueryCmd(withApp appRunner) *cobra.Command {
	var (
		topK        int
		contextType string
		html        bool
	)
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "answer a question from the indexed conversation",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			req := service.QueryRequest{
				Query:   args[0],
				TopK:    topK,
				Filters: service.QueryFilters{ContextType: model.ContextType(contextType)},
			}
			if html {
				req.Render = service.RenderHTML
			}
			res, err := a.insightService.Query(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(res)
		}),
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve")
	cmd.Flags().StringVar(&contextType, "context-type", "", "only retrieve chunks of this context type")
	cmd.Flags().BoolVar(&html, "html", false, "render the insights as html")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "print the json schema of exported records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				schema map[string]interface{}
				err    error
			)
			switch kind {
			case "record":
				schema, err = retrieval.RecordSchema()
			case "chunk":
				schema, err = retrieval.ChunkSchema()
			default:
				return fmt.Errorf("unknown schema type %q, want record or chunk", kind)
			}
			if err != nil {
				return err
			}
			return printJSON(schema)
		},
	}
	cmd.Flags().StringVar(&kind, "type", "record", "record or chunk")
	return cmd
}

func runServer(ctx context.Context, a *app, _ []string) error {
	cfg := a.cfg
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("vector_index", cfg.VectorIndex.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)

	deps := handler.RouterDeps{
		Pipeline:  handler.NewPipelineHandler(a.tagService, a.vectorizeService, a.analysisService),
		Query:     handler.NewQueryHandler(a.insightService),
		Chunks:    handler.NewChunkHandler(a.chunkService, a.exportService),
		Messages:  handler.NewMessageHandler(a.messageService, a.importService, maxUploadSize),
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimit: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewTagMessagesJob(a.tagService), cfg.Schedule.TagSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewVectorizeChunksJob(a.vectorizeService), cfg.Schedule.VectorizeSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(a.embedCache, cfg.EmbedCache.MaxAgeDays), cfg.Schedule.CacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func printReport(report *model.RunReport, err error) error {
	if report != nil {
		if perr := printJSON(report); perr != nil {
			return perr
		}
	}
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
