// Package auth signs the anonymous session cookie that ties a browser to its cart.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/trendstep/storefront/internal/infrastructure/config"
)

// Token errors
var (
	ErrInvalidToken     = errors.New("invalid session token")
	ErrExpiredToken     = errors.New("session token has expired")
	ErrTokenNotYetValid = errors.New("session token is not yet valid")
	ErrMissingSessionID = errors.New("missing sid in claims")
)

// SessionClaims are the claims of a session cookie
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// SessionTokens issues and verifies HS256 session tokens
type SessionTokens struct {
	secret []byte
	issuer string
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionTokens creates the token service from the session settings
func NewSessionTokens(cfg config.SessionConfig) *SessionTokens {
	return &SessionTokens{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		maxAge: cfg.MaxAge,
		now:    time.Now,
	}
}

// NewSessionID returns a fresh random session ID
func NewSessionID() string {
	return uuid.NewString()
}

// Issue signs a token for sessionID. The token expires after the configured
// max age; a zero max age issues a token without expiry.
func (s *SessionTokens) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSessionID
	}

	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		SessionID: sessionID,
	}
	if s.maxAge > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the signature, issuer and time claims and returns the session ID
func (s *SessionTokens) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return "", ErrTokenNotYetValid
		default:
			return "", ErrInvalidToken
		}
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.SessionID == "" {
		return "", ErrMissingSessionID
	}
	return claims.SessionID, nil
}
