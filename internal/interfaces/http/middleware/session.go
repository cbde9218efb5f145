package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/trendstep/storefront/internal/infrastructure/auth"
	"github.com/trendstep/storefront/internal/infrastructure/config"
	"github.com/trendstep/storefront/internal/infrastructure/logger"
)

// SessionTokenHeader returns a freshly issued token to API clients without a cookie jar
const SessionTokenHeader = "X-Session-Token"

// SessionConfig configures the Session middleware
type SessionConfig struct {
	Tokens     *auth.SessionTokens
	CookieName string
	MaxAge     int // seconds
	Secure     bool
	SameSite   http.SameSite
	Logger     *zap.Logger
	Skip       func(path string) bool // paths served without a session
}

// NewSessionConfig builds the middleware configuration from the session settings
func NewSessionConfig(cfg config.SessionConfig, log *zap.Logger) SessionConfig {
	return SessionConfig{
		Tokens:     auth.NewSessionTokens(cfg),
		CookieName: cfg.CookieName,
		MaxAge:     int(cfg.MaxAge.Seconds()),
		Secure:     cfg.Secure,
		SameSite:   parseSameSite(cfg.SameSite),
		Logger:     log,
	}
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Session resolves the anonymous storefront session. The signed token is read
// from the session cookie or an Authorization bearer header; a missing or
// invalid token starts a new session and sets a fresh cookie.
func Session(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if cfg.Skip != nil && cfg.Skip(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := sessionToken(c, cfg.CookieName)
		sid, err := "", auth.ErrInvalidToken
		if token != "" {
			sid, err = cfg.Tokens.Verify(token)
		}

		if err != nil {
			if token != "" {
				log.Debug("discarding session token", zap.Error(err))
			}
			sid = auth.NewSessionID()
			issued, issueErr := cfg.Tokens.Issue(sid)
			if issueErr != nil {
				log.Error("failed to issue session token", zap.Error(issueErr))
			} else {
				c.SetSameSite(cfg.SameSite)
				c.SetCookie(cfg.CookieName, issued, cfg.MaxAge, "/", "", cfg.Secure, true)
				c.Header(SessionTokenHeader, issued)
			}
		}

		c.Set(logger.GinSessionIDKey, sid)
		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetSessionID returns the session resolved by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(logger.GinSessionIDKey)
}
