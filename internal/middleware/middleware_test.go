package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/unmask/internal/pkg/errcode"
	"github.com/xxxsen/unmask/internal/pkg/jwt"
)

func newAuthEngine(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(secret))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, Operator(c))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("secret")
	token, err := jwt.GenerateToken("analyst", secret, time.Hour)
	require.NoError(t, err)
	r := newAuthEngine(secret)

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{name: "valid bearer", header: "Bearer " + token, ok: true},
		{name: "lowercase scheme", header: "bearer " + token, ok: true},
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic " + token},
		{name: "garbage token", header: "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if tt.ok {
				require.Equal(t, "analyst", w.Body.String())
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			codeValue, _ := body["code"].(float64)
			require.Equal(t, float64(errcode.ErrUnauthorized), codeValue)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://ok.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://ok.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "https://ok.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, HeaderRequestID, w.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSWildcard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, allow := range [][]string{nil, {"*"}, {" ", "*", "https://ok.example"}} {
		r := gin.New()
		r.Use(CORS(allow))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://any.example")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, corsAllowMethods, w.Header().Get("Access-Control-Allow-Methods"))
	}
}
