// Package auth verifies bearer tokens on operational HTTP surfaces. Token
// issuance lives in the account service; this only checks signatures against
// the issuer's JWKS. With no issuer configured, verification is disabled.
package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Claims are the token claims the hub cares about
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type contextKey string

// UserContextKey holds the verified *Claims in the request context
const UserContextKey contextKey = "user"

// Verifier validates JWT bearer tokens against an OIDC issuer's JWKS
type Verifier struct {
	issuerURL string
	logger    zerolog.Logger

	mu   sync.RWMutex
	jwks keyfunc.Keyfunc
}

// NewVerifier creates a Verifier. With an empty issuerURL it passes every
// request through.
func NewVerifier(issuerURL string, logger zerolog.Logger) (*Verifier, error) {
	v := &Verifier{
		issuerURL: issuerURL,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
	if issuerURL == "" {
		return v, nil
	}

	jwksURL := strings.TrimSuffix(issuerURL, "/") + "/protocol/openid-connect/certs"
	k, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, err
	}
	v.jwks = k
	v.logger.Info().Str("jwks_url", jwksURL).Msg("JWKS loaded")
	return v, nil
}

// Middleware returns the token-checking HTTP middleware
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v.jwks == nil {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := extractToken(r)
		if tokenString == "" {
			http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc())
		if err != nil || !token.Valid {
			v.logger.Debug().Err(err).Msg("token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (v *Verifier) keyfunc() jwt.Keyfunc {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.jwks.Keyfunc
}

// extractToken gets the token from the Authorization header or, for
// WebSocket upgrades, the token query parameter
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return tokenString
		}
	}
	return r.URL.Query().Get("token")
}
