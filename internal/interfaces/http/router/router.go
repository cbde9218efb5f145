// Package router assembles the gin engine: middleware stack, storefront
// pages, static assets and the versioned cart API.
package router

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	_ "github.com/trendstep/storefront/docs"
	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
	"github.com/trendstep/storefront/internal/interfaces/http/handler"
	"github.com/trendstep/storefront/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering API routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages versioned API route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithAPIMiddleware adds middleware to the API group only
func WithAPIMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all API routes under /api/{version}
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}

// Deps are the collaborators New wires into the engine
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Meter       metric.Meter // nil disables HTTP metrics
	Views       *template.Template
	Storefront  *handler.StorefrontHandler
	Cart        *handler.CartHandler
	System      *handler.SystemHandler
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
}

// untracked paths get no session, span or profile labels
var untracked = []string{"/health", "/static/", "/swagger/", "/favicon.ico"}

func isUntracked(path string) bool {
	for _, p := range untracked {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// New builds the engine. Middleware order: request ID, recovery, tracing,
// session, request logging, span enrichment, metrics, profiling labels,
// security headers, CORS, body limit.
func New(deps Deps) (*gin.Engine, error) {
	if deps.Config == nil || deps.Storefront == nil || deps.Cart == nil || deps.System == nil || deps.Views == nil {
		return nil, errors.New("router: config, views and all handlers are required")
	}
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.SetHTMLTemplate(deps.Views)

	session := middleware.NewSessionConfig(cfg.Session, log)
	session.Skip = isUntracked

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		Options: []otelgin.Option{
			otelgin.WithFilter(func(r *http.Request) bool { return !isUntracked(r.URL.Path) }),
		},
	}))
	engine.Use(middleware.Session(session))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SpanAttributes(), middleware.SpanErrorMarker())
	if deps.Meter != nil {
		metrics, err := middleware.Metrics(deps.Meter)
		if err != nil {
			return nil, err
		}
		engine.Use(metrics)
	}
	engine.Use(middleware.Profiling(middleware.ProfilingConfig{
		Enabled:   cfg.Telemetry.ProfilingEnabled,
		SkipPaths: []string{"/health"},
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, middleware.SessionTokenHeader, "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", deps.System.Health)
	engine.StaticFS("/static", handler.StaticFS())
	if cfg.HTTP.SwaggerEnabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var limited []gin.HandlerFunc
	if deps.RateLimiter != nil {
		limited = append(limited, middleware.RateLimit(deps.RateLimiter))
	}

	deps.Storefront.RegisterRoutes(engine.Group("/", limited...))

	NewRouter(engine, WithAPIMiddleware(append(limited, middleware.NoStore())...)).
		Register(deps.Cart).
		Register(deps.System).
		Setup()

	return engine, nil
}
