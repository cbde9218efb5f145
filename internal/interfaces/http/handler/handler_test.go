package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/infrastructure/catalogfile"
	"github.com/trendstep/storefront/internal/infrastructure/event"
	"github.com/trendstep/storefront/internal/infrastructure/i18n"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
	"github.com/trendstep/storefront/internal/infrastructure/storage"
	"github.com/trendstep/storefront/internal/interfaces/http/dto"
	"github.com/trendstep/storefront/internal/interfaces/http/middleware"
)

const testSessionHeader = "X-Test-Session"

func init() {
	gin.SetMode(gin.TestMode)
}

// failingStorage answers every call with an error
type failingStorage struct{}

var errBackendDown = errors.New("backend down")

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errBackendDown
}
func (failingStorage) Set(context.Context, string, string) error { return errBackendDown }
func (failingStorage) Remove(context.Context, string) error      { return errBackendDown }

type testApp struct {
	engine *gin.Engine
	board  *notice.Board
	carts  *appcart.Manager
}

type appOption func(*appConfig)

type appConfig struct {
	storage cart.Storage
	cartOpt []CartHandlerOption
}

func withStorage(s cart.Storage) appOption {
	return func(c *appConfig) { c.storage = s }
}

func withCartOptions(opts ...CartHandlerOption) appOption {
	return func(c *appConfig) { c.cartOpt = append(c.cartOpt, opts...) }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	cfg := &appConfig{storage: storage.NewMemoryStore(0)}
	for _, opt := range opts {
		opt(cfg)
	}

	board := notice.NewBoard()
	t.Cleanup(board.Close)

	bus := event.NewInMemoryEventBus(nil)
	notices := notice.NewEventHandler(board, notice.DefaultTTLs(), nil)
	bus.Subscribe(notices)

	carts := appcart.NewManager(cfg.storage, appcart.WithPublisher(bus))
	source := catalogfile.Static(catalogfile.Default())
	localizer := i18n.New("es")

	views, err := NewViews(localizer)
	require.NoError(t, err)

	middleware.SetupValidator()
	r := gin.New()
	r.SetHTMLTemplate(views)
	r.Use(func(c *gin.Context) {
		sid := c.GetHeader(testSessionHeader)
		if sid == "" {
			sid = "s1"
		}
		c.Set(logger.GinSessionIDKey, sid)
		c.Next()
	})

	NewStorefrontHandler(carts, source, board, notices).RegisterRoutes(r)
	api := r.Group("/api/v1")
	NewCartHandler(carts, source, localizer, cfg.cartOpt...).RegisterRoutes(api)

	return &testApp{engine: r, board: board, carts: carts}
}

func (a *testApp) do(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testApp) json(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return a.do(method, path, r, map[string]string{"Content-Type": "application/json"})
}

func (a *testApp) form(path string, values url.Values, headers map[string]string) *httptest.ResponseRecorder {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	for k, v := range headers {
		h[k] = v
	}
	return a.do(http.MethodPost, path, strings.NewReader(values.Encode()), h)
}

func (a *testApp) page(path string) *httptest.ResponseRecorder {
	return a.do(http.MethodGet, path, nil, nil)
}

// decode unmarshals the envelope and its data into out
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var env struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Response
}
