package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func systemRouter(h *SystemHandler) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.Health)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := systemRouter(NewSystemHandler("storefront", "test", "redis", pinger{}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "healthy", got.Status)
		assert.Equal(t, "ok", got.Storage)
		assert.Equal(t, "redis", got.Driver)
	})

	t.Run("storage down", func(t *testing.T) {
		r := systemRouter(NewSystemHandler("storefront", "test", "redis", pinger{err: errors.New("refused")}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var got HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "unhealthy", got.Status)
		assert.Equal(t, "error", got.Storage)
	})
}

func TestSystemHandler_Info(t *testing.T) {
	r := systemRouter(NewSystemHandler("storefront", "1.2.3", "memory", pinger{}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got SystemInfoResponse
	decode(t, w, &got)
	assert.Equal(t, "storefront", got.Name)
	assert.Equal(t, "1.2.3", got.Version)
	assert.Equal(t, "memory", got.Driver)
	assert.NotEmpty(t, got.GoVersion)
}
