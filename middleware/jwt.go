package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/utils"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims are the custom payload in our JWT. RegisteredClaims.ID carries
// the token id checked against the revocation list.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserLookup loads the account behind a token on every request so that
// deactivation takes effect immediately.
type UserLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// unexported type prevents collisions in context
type ctxKey int

const (
	userClaimsKey ctxKey = iota
	userKey
)

// Auth issues and verifies tokens.
type Auth struct {
	secret  []byte
	ttl     time.Duration
	revoker Revoker
	users   UserLookup
}

func NewAuth(secret string, ttl time.Duration, revoker Revoker, users UserLookup) *Auth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{secret: []byte(secret), ttl: ttl, revoker: revoker, users: users}
}

// GenerateToken creates a signed JWT valid for the configured TTL.
func (a *Auth) GenerateToken(u *models.User) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(a.ttl)
	claims := Claims{
		UserID:   u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	return signed, expires, err
}

// ParseToken verifies signature, expiry and revocation.
func (a *Auth) ParseToken(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrUnauthorized
	}
	if a.revoker != nil && claims.ID != "" {
		revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (a *Auth) Revoke(ctx context.Context, claims *Claims) error {
	if a.revoker == nil || claims.ID == "" {
		return nil
	}
	until := time.Now().Add(a.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return a.revoker.Revoke(ctx, claims.ID, until)
}

// Middleware validates the bearer token and stashes the Claims and the
// active user in ctx.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "invalid auth header", http.StatusUnauthorized)
			return
		}

		claims, err := a.ParseToken(r.Context(), parts[1])
		switch {
		case errors.Is(err, ErrTokenRevoked):
			http.Error(w, "token has been revoked", http.StatusUnauthorized)
			return
		case errors.Is(err, ErrUnauthorized):
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		case err != nil:
			zap.L().Error("token revocation check failed", zap.Error(err))
			http.Error(w, "could not verify token", http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), userClaimsKey, claims)
		if a.users != nil {
			id, err := uuid.Parse(claims.UserID)
			if err != nil {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}
			user, err := a.users.Get(r.Context(), id)
			if err != nil || !user.IsActive {
				http.Error(w, "account is inactive", http.StatusUnauthorized)
				return
			}
			ctx = context.WithValue(ctx, userKey, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole wraps a handler and ensures the caller's role is one of roles.
func RequireRole(roles []models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(roles, models.Role(GetRole(r))) {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

// RequirePermission checks the role grant table in utils.
func RequirePermission(permission string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if utils.HasPermission(models.Role(GetRole(r)), permission) {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

// GetClaims pulls the *Claims out of the request context (or nil)
func GetClaims(r *http.Request) *Claims {
	if c, ok := r.Context().Value(userClaimsKey).(*Claims); ok {
		return c
	}
	return nil
}

// GetUser returns the account loaded by Middleware, or nil.
func GetUser(r *http.Request) *models.User {
	if u, ok := r.Context().Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

// GetRole prefers the role of the loaded account over the token claim, so a
// role change applies to tokens issued before it.
func GetRole(r *http.Request) string {
	if u := GetUser(r); u != nil {
		return string(u.Role)
	}
	if c := GetClaims(r); c != nil {
		return c.Role
	}
	return ""
}

// WithUser attaches u to ctx as Middleware would. Handlers under test use it
// to skip token handling.
func WithUser(ctx context.Context, u *models.User) context.Context {
	claims := &Claims{UserID: u.ID.String(), Username: u.Username, Name: u.Name, Role: string(u.Role)}
	ctx = context.WithValue(ctx, userClaimsKey, claims)
	return context.WithValue(ctx, userKey, u)
}
