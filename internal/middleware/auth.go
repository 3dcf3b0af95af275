// Package middleware содержит HTTP middleware для сервиса shoppoints.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ashevelev/shoppoints/internal/auth"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	claimsKey contextKey = "claims"
)

// TokenChecker проверяет, отозван ли токен с указанным идентификатором.
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware выполняет проверку аутентификации пользователя по bearer-токену.
type AuthMiddleware struct {
	tokens  *auth.TokenManager
	checker TokenChecker
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware.
func NewAuthMiddleware(tokens *auth.TokenManager, checker TokenChecker) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		checker: checker,
	}
}

// Middleware проверяет заголовок Authorization и добавляет идентификатор
// пользователя и claims токена в контекст запроса. Отозванные токены отклоняются.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := BearerToken(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if a.checker != nil {
			revoked, err := a.checker.IsTokenRevoked(r.Context(), claims.ID)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if revoked {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken извлекает токен из заголовка Authorization запроса.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetClaimsFromContext извлекает claims токена из контекста запроса.
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
