package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/salesops/crm-dashboard/internal/config"
	"github.com/salesops/crm-dashboard/internal/logger"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	apiKey       string
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.AuthConfig, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer),
		apiKey:       cfg.ApiKey,
		logger:       logger,
	}
}

// Validator returns the bearer token validator.
func (m *Middleware) Validator() *JWTValidator {
	return m.jwtValidator
}

// Authenticate accepts an X-API-Key header or an HS256 bearer token.
// The API key grants the admin role.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			caller := &Caller{
				Subject: "system",
				Name:    "System",
				Roles:   []Role{RoleAdmin},
				Method:  MethodAPIKey,
			}
			m.authenticated(w, r, next, caller, start)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		caller, err := m.jwtValidator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		m.authenticated(w, r, next, caller, start)
	})
}

func (m *Middleware) authenticated(w http.ResponseWriter, r *http.Request, next http.Handler, caller *Caller, start time.Time) {
	logger.WithCaller(m.logger, caller.Subject, caller.Method).Debug("request authenticated",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Strings("roles", caller.RolesAsStrings()),
		zap.Duration("auth_duration", time.Since(start)),
	)
	next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
}

// RequireRole middleware ensures the caller has one of the roles
func (m *Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no caller", http.StatusForbidden)
				return
			}

			if !caller.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
