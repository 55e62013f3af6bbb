// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"helper-admin.kz/internal/auth"
)

type contextKey string

const SessionContextKey contextKey = "session"

// writeError отдаёт ошибку в JSON, как и остальные ответы API.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// RequireAuthentication пропускает только запросы с отметкой входа и кладёт её в контекст.
func RequireAuthentication(sessions auth.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Get(r.Context())
			if err != nil {
				slog.Error("RequireAuthentication: повреждённая сессия", "path", r.URL.Path, "error", err)
				sessions.Clear(r.Context())
			}
			if err != nil || !sess.IsAuthenticated || sess.UserID == 0 {
				slog.Warn("Access denied: user not authenticated", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Требуется вход в панель.")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext возвращает отметку входа, положенную RequireAuthentication.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	sess, ok := ctx.Value(SessionContextKey).(auth.Session)
	return sess, ok && sess.IsAuthenticated
}
