package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/model"
	"github.com/xxxsen/unmask/internal/pkg/errcode"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func feed() []model.Message {
	msg := func(id int64, offset time.Duration, sender, text string) model.Message {
		dir := model.DirectionIncoming
		if sender == "" {
			dir = model.DirectionOutgoing
		}
		return model.Message{ID: id, Timestamp: base.Add(offset), Sender: sender, Direction: dir, Text: text}
	}
	return []model.Message{
		msg(1, 0, "Sam", "good morning, I love you"),
		msg(2, time.Minute, "", "love you too!"),
		msg(3, 10*time.Hour, "Sam", "I'm so angry, you always do this"),
		msg(4, 10*time.Hour+time.Minute, "", "sorry, my fault"),
		msg(5, 20*time.Hour, "Sam", "dinner tonight?"),
	}
}

func decode(t *testing.T, resp apiResponse, dst interface{}) {
	t.Helper()
	require.Equal(t, 0, resp.Code, resp.Msg)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func TestHealthzAndAuth(t *testing.T) {
	env := setupRouter(t)

	resp := env.serve(t, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	require.Equal(t, 0, resp.Code)

	resp = env.serve(t, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))
	require.Equal(t, errcode.ErrUnauthorized, resp.Code)
}

func TestPipelineFlow(t *testing.T) {
	env := setupRouter(t)
	env.seed(t, feed()...)

	var report model.RunReport
	decode(t, env.do(t, http.MethodPost, "/api/v1/tag-messages", nil), &report)
	require.Equal(t, "tagging", report.Stage)
	require.Equal(t, 5, report.TotalProcessed)

	var search struct {
		Results []model.TagHit `json:"results"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/search-tags?category=emotional", nil), &search)
	require.NotEmpty(t, search.Results)
	for _, hit := range search.Results {
		require.Equal(t, model.CategoryEmotional, hit.Tag.Category)
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/search-tags?category=conflict&min_intensity=9", nil), &search)
	for _, hit := range search.Results {
		require.GreaterOrEqual(t, hit.Tag.Score, 9)
	}

	var analysis model.ReferenceAnalysis
	decode(t, env.do(t, http.MethodPost, "/api/v1/analyze-tags", map[string]string{"tag_category": "ex_analysis"}), &analysis)
	require.Equal(t, model.CategoryExReference, analysis.Category)

	decode(t, env.do(t, http.MethodPost, "/api/v1/vectorize", nil), &report)
	require.Equal(t, 5, report.TotalMessages)
	require.Equal(t, 3, report.TotalChunks)
	require.Equal(t, 3, report.VectorizedChunks)

	var lookup struct {
		Chunks  []model.Chunk `json:"chunks"`
		Missing []string      `json:"missing"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/v1/chunks?ids=chunk_2,chunk_9", nil), &lookup)
	require.Len(t, lookup.Chunks, 1)
	require.Equal(t, []int64{3, 4}, lookup.Chunks[0].MessageIDs)
	require.Equal(t, []string{"chunk_9"}, lookup.Missing)

	var one model.Chunk
	decode(t, env.do(t, http.MethodGet, "/api/v1/chunks/chunk_1", nil), &one)
	require.Contains(t, one.Text, "Sam: good morning, I love you")

	resp := env.do(t, http.MethodGet, "/api/v1/chunks/chunk_42", nil)
	require.Equal(t, errcode.ErrNotFound, resp.Code)

	var result struct {
		Query        string            `json:"query"`
		ContextCount int               `json:"context_count"`
		Insights     string            `json:"insights"`
		HTML         string            `json:"html"`
		TopMatches   []json.RawMessage `json:"top_matches"`
	}
	decode(t, env.do(t, http.MethodPost, "/api/v1/query?render=html", map[string]interface{}{"query": "love", "top_k": 2}), &result)
	require.Equal(t, 2, result.ContextCount)
	require.Len(t, result.TopMatches, 2)
	require.Contains(t, result.Insights, "Insights for love")
	require.Contains(t, result.HTML, "<h2")

	var export struct {
		Key    string `json:"key"`
		Chunks int    `json:"chunks"`
	}
	decode(t, env.do(t, http.MethodPost, "/api/v1/chunks/export", map[string]string{"key": "dumps/all.jsonl"}), &export)
	require.Equal(t, "dumps/all.jsonl", export.Key)
	require.Equal(t, 3, export.Chunks)
	require.FileExists(t, env.files+"/dumps/all.jsonl")

	var page model.MessagePage
	decode(t, env.do(t, http.MethodGet, "/api/v1/messages?page=2&limit=2", nil), &page)
	require.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, int64(3), page.Items[0].ID)
}

func TestValidationErrors(t *testing.T) {
	env := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
	}{
		{name: "vectorize empty feed", method: http.MethodPost, path: "/api/v1/vectorize", code: errcode.ErrNoMessages},
		{name: "bad intensity", method: http.MethodGet, path: "/api/v1/search-tags?min_intensity=abc", code: errcode.ErrInvalid},
		{name: "intensity out of range", method: http.MethodGet, path: "/api/v1/search-tags?min_intensity=12", code: errcode.ErrInvalid},
		{name: "unknown analysis", method: http.MethodPost, path: "/api/v1/analyze-tags", body: map[string]string{"tag_category": "weather"}, code: errcode.ErrInvalid},
		{name: "empty query", method: http.MethodPost, path: "/api/v1/query", body: map[string]string{"query": " "}, code: errcode.ErrInvalid},
		{name: "chunks without ids", method: http.MethodGet, path: "/api/v1/chunks", code: errcode.ErrInvalid},
		{name: "bad message id", method: http.MethodGet, path: "/api/v1/messages/abc", code: errcode.ErrInvalid},
		{name: "missing message", method: http.MethodGet, path: "/api/v1/messages/99", code: errcode.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.code, resp.Code)
		})
	}
}

func uploadRequest(t *testing.T, token, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestImportUpload(t *testing.T) {
	env := setupRouter(t)
	csv := "date_time,type,sender,message,attachment\n" +
		"2024-03-01 09:00:00,Incoming,Sam,hello,\n" +
		"2024-03-01 09:01:00,Outgoing,,hi there,\n" +
		"garbage,Incoming,Sam,skip me,\n"

	var res struct {
		Rows      int    `json:"rows"`
		Inserted  int    `json:"inserted"`
		Skipped   int    `json:"skipped"`
		StoredKey string `json:"stored_key"`
	}
	decode(t, env.serve(t, uploadRequest(t, env.token, "export.csv", csv)), &res)
	require.Equal(t, 3, res.Rows)
	require.Equal(t, 2, res.Inserted)
	require.Equal(t, 1, res.Skipped)
	require.FileExists(t, env.files+"/"+res.StoredKey)

	resp := env.serve(t, uploadRequest(t, env.token, "export.zip", csv))
	require.Equal(t, errcode.ErrInvalidFile, resp.Code)

	resp = env.serve(t, uploadRequest(t, env.token, "empty.csv", "sender,message\nSam,hi\n"))
	require.Equal(t, errcode.ErrImportFailed, resp.Code)
}
