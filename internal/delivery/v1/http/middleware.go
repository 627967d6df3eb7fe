package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
)

// CurrentUserID возвращает id пользователя, проверенного AuthMiddleware.
func CurrentUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// CurrentRole возвращает роль текущего пользователя. Без аутентификации — покупатель.
func CurrentRole(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(roleKey).(domain.Role); ok {
		return role
	}
	return domain.RoleCustomer
}

func withIdentity(ctx context.Context, claims *usecase.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	return context.WithValue(ctx, roleKey, claims.Role)
}

type AuthMiddleware struct {
	userUC usecase.UserUC
	logger logger.Logger
}

func NewAuthMiddleware(userUC usecase.UserUC, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{userUC: userUC, logger: logger}
}

// Authenticate требует заголовок "Authorization: Bearer <token>".
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.logger.Debugf("missing bearer token: %s %s", r.Method, r.URL.Path)
			WriteError(w, e.ErrUnauthorized)
			return
		}

		claims, err := m.userUC.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Warnf("%d %s %s: %s", http.StatusUnauthorized, r.Method, r.URL.Path, err.Error())
			WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims)))
	})
}

// RequireAdmin ставится после Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CurrentRole(r.Context()).IsAdmin() {
			WriteError(w, e.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "bearer "

	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// requestLogger пишет одну строку на запрос через общий логгер.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Infof("%s %s %d %dB %s request_id=%s",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
