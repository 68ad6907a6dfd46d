package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/unmask/internal/chunk"
	"github.com/xxxsen/unmask/internal/classify"
	"github.com/xxxsen/unmask/internal/config"
	"github.com/xxxsen/unmask/internal/filestore"
	"github.com/xxxsen/unmask/internal/handler"
	"github.com/xxxsen/unmask/internal/middleware"
	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pattern"
	"github.com/xxxsen/unmask/internal/pkg/jwt"
	"github.com/xxxsen/unmask/internal/repo"
	"github.com/xxxsen/unmask/internal/service"
	"github.com/xxxsen/unmask/internal/testutil"
	"github.com/xxxsen/unmask/internal/vectorindex"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	return []float32{float32(len(text)%5) + 1, float32(strings.Count(text, "love")) + 1, 1}, nil
}

type stubGenerator struct{}

func (stubGenerator) Insights(_ context.Context, query string, _ string) (string, error) {
	return "## Patterns\n\nInsights for " + query, nil
}

type testEnv struct {
	router   http.Handler
	token    string
	messages *repo.MessageRepo
	files    string
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)
	messageRepo := repo.NewMessageRepo(db)
	tagRepo := repo.NewMessageTagRepo(db)
	chunkRepo := repo.NewChunkRepo(db)

	index, err := vectorindex.New(config.VectorIndexConfig{Type: "sql"}, db)
	require.NoError(t, err)

	tmpDir, err := os.MkdirTemp("", "unmask-files-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": tmpDir},
	})
	require.NoError(t, err)

	lib := pattern.Default()
	retry := service.RetryConfig{Attempts: 1}
	tagService := service.NewTagService(messageRepo, tagRepo, classify.New(lib), service.TagConfig{BatchSize: 50, Workers: 2, Retry: retry})
	vectorService := service.NewVectorizeService(messageRepo, chunkRepo, chunk.NewAnnotator(lib), stubEmbedder{}, index, service.VectorizeConfig{
		BatchSize: 5,
		Segment:   chunk.DefaultOptions(),
		Retry:     retry,
	})
	insightService := service.NewInsightService(stubEmbedder{}, stubGenerator{}, index, chunkRepo, 10, nil)

	secret := []byte("test-secret")
	deps := handler.RouterDeps{
		Pipeline:  handler.NewPipelineHandler(tagService, vectorService, service.NewAnalysisService(tagRepo)),
		Query:     handler.NewQueryHandler(insightService),
		Chunks:    handler.NewChunkHandler(service.NewChunkService(chunkRepo), service.NewExportService(chunkRepo, store)),
		Messages:  handler.NewMessageHandler(service.NewMessageService(messageRepo, tagRepo), service.NewImportService(messageRepo, store, 100), 1024*1024),
		JWTSecret: secret,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(middleware.RequestID(), middleware.CORS(nil)),
	)
	require.NoError(t, err)

	token, err := jwt.GenerateToken("tester", secret, time.Hour)
	require.NoError(t, err)
	return &testEnv{router: engine, token: token, messages: messageRepo, files: tmpDir}
}

func (e *testEnv) seed(t *testing.T, msgs ...model.Message) {
	t.Helper()
	_, err := e.messages.InsertBatch(context.Background(), msgs)
	require.NoError(t, err)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) apiResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) apiResponse {
	t.Helper()
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var out apiResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}
