package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return r
}

func TestRequestID_Generated(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	newEngine().ServeHTTP(w, req)

	id := w.Header().Get(HeaderRequestID)
	require.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
}

func TestRequestID_Propagated(t *testing.T) {
	const id = "3f2b8c1e-9a4d-4e5f-8b6a-1c2d3e4f5a6b"
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, id)
	newEngine().ServeHTTP(w, req)

	assert.Equal(t, id, w.Header().Get(HeaderRequestID))
	assert.Equal(t, id, w.Body.String())
}

func TestRequestID_ReplacesNonUUID(t *testing.T) {
	for _, supplied := range []string{"abc-123", "../x", "a/b"} {
		t.Run(supplied, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set(HeaderRequestID, supplied)
			newEngine().ServeHTTP(w, req)

			id := w.Header().Get(HeaderRequestID)
			assert.NotEqual(t, supplied, id)
			_, err := uuid.Parse(id)
			assert.NoError(t, err)
			assert.Equal(t, id, w.Body.String())
		})
	}
}

func TestLogger_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "0e7c1a52-4b3f-4d6a-9f1e-2a3b4c5d6e7f")
	newEngine().ServeHTTP(w, req)

	assert.Contains(t, buf.String(), `"requestId":"0e7c1a52-4b3f-4d6a-9f1e-2a3b4c5d6e7f"`)
	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"path":"/ping"`)
}
