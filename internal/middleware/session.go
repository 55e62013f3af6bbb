// internal/middleware/session.go
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

// LoadSession загружает сессию scs в контекст без обёртки ResponseWriter и без сохранения.
// Нужен для websocket: соединение перехватывается, а LoadAndSave пишет cookie после обработчика.
func LoadSession(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if cookie, err := r.Cookie(sm.Cookie.Name); err == nil {
				token = cookie.Value
			}
			ctx, err := sm.Load(r.Context(), token)
			if err != nil {
				slog.Error("Не удалось загрузить сессию", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusInternalServerError, "Ошибка сессии")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
