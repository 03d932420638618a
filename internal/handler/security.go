package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/xenking/shop-api/internal/domain/user"
	"github.com/xenking/shop-api/pkg/httpmiddleware"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	userKey
)

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// UserFromContext returns the user resolved by RequireRole, or nil.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey).(*user.User)
	return u
}

// ParseToken validates an HS256 bearer token and returns its subject.
func ParseToken(secret []byte, token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Wrap(err, "parse token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

// Authenticate requires an "Authorization: Bearer <jwt>" header and stores
// the token subject as the user id on the request context.
func Authenticate(secret []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, kindUnauthorized, "missing bearer token")
				return
			}
			id, err := ParseToken(secret, strings.TrimSpace(raw))
			if err != nil {
				zctx.From(r.Context()).Debug("Token rejected", zap.Error(err))
				httpmiddleware.WriteError(w, http.StatusUnauthorized, kindUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
		})
	}
}

// RequireRole resolves the authenticated user and lets the request through
// only when the user has one of roles. It must run after Authenticate.
func RequireRole(users user.Repository, roles ...user.Role) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			u, err := users.GetByID(ctx, UserIDFromContext(ctx))
			if err != nil {
				renderError(w, r, err)
				return
			}
			if !u.HasRole(roles...) {
				httpmiddleware.WriteError(w, http.StatusUnauthorized, kindUnauthorized, user.ErrUnauthorized.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userKey, u)))
		})
	}
}
