package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/infrastructure/catalogfile"
	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
	"github.com/trendstep/storefront/internal/infrastructure/storage"
	"github.com/trendstep/storefront/internal/interfaces/http/handler"
	"github.com/trendstep/storefront/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Telemetry.Enabled = false
	cfg.Telemetry.ProfilingEnabled = false

	mem := storage.NewMemoryStore(0)
	board := notice.NewBoard()
	t.Cleanup(board.Close)
	notices := notice.NewEventHandler(board, notice.DefaultTTLs(), nil)
	carts := appcart.NewManager(mem)
	source := catalogfile.Static(catalogfile.Default())
	localizer := i18n.New("es")

	views, err := handler.NewViews(localizer)
	require.NoError(t, err)

	return Deps{
		Config:     cfg,
		Views:      views,
		Storefront: handler.NewStorefrontHandler(carts, source, board, notices),
		Cart:       handler.NewCartHandler(carts, source, localizer),
		System:     handler.NewSystemHandler("storefront", "test", "memory", pingFunc(func(context.Context) error { return nil })),
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNew_RequiresHandlers(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestNew_Routes(t *testing.T) {
	engine, err := New(testDeps(t))
	require.NoError(t, err)

	t.Run("health has no session", func(t *testing.T) {
		w := get(engine, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies())
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("home sets the session cookie", func(t *testing.T) {
		w := get(engine, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Nuestros productos")
		assert.Len(t, w.Result().Cookies(), 1)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("api is not cached", func(t *testing.T) {
		w := get(engine, "/api/v1/cart")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	})

	t.Run("static assets", func(t *testing.T) {
		w := get(engine, "/static/storefront.js")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "data-ttl")
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/cart", strings.NewReader("")))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestNew_Swagger(t *testing.T) {
	t.Run("not mounted when disabled", func(t *testing.T) {
		deps := testDeps(t)
		deps.Config.HTTP.SwaggerEnabled = false
		engine, err := New(deps)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, get(engine, "/swagger/index.html").Code)
	})

	t.Run("serves the explorer and the API document", func(t *testing.T) {
		deps := testDeps(t)
		deps.Config.HTTP.SwaggerEnabled = true
		engine, err := New(deps)
		require.NoError(t, err)

		page := get(engine, "/swagger/index.html")
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Empty(t, page.Result().Cookies())

		doc := get(engine, "/swagger/doc.json")
		require.Equal(t, http.StatusOK, doc.Code)
		var spec struct {
			BasePath string                    `json:"basePath"`
			Paths    map[string]map[string]any `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(doc.Body.Bytes(), &spec))
		assert.Equal(t, "/api/v1", spec.BasePath)
		assert.Contains(t, spec.Paths, "/cart/items/{id}")
		assert.Contains(t, spec.Paths["/cart/checkout"], "post")
	})
}

func TestNew_RateLimit(t *testing.T) {
	deps := testDeps(t)
	deps.RateLimiter = middleware.NewRateLimiter(0.001, 1)
	engine, err := New(deps)
	require.NoError(t, err)

	first := get(engine, "/api/v1/cart/count")
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/count", nil)
	req.AddCookie(cookies[0])
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "same session")

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/cart/count").Code, "a new session has its own bucket")
	assert.Equal(t, http.StatusOK, get(engine, "/health").Code, "health is not limited")
}

func TestIsUntracked(t *testing.T) {
	assert.True(t, isUntracked("/health"))
	assert.True(t, isUntracked("/static/storefront.css"))
	assert.True(t, isUntracked("/swagger/index.html"))
	assert.False(t, isUntracked("/healthz"))
	assert.False(t, isUntracked("/carrito"))
}
