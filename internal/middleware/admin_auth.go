// internal/middleware/admin_auth.go
package middleware

import (
	"log/slog"
	"net/http"
	"slices"
)

// RequireRole проверяет, имеет ли аутентифицированный администратор одну из разрешенных ролей.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				// Это не должно произойти, если RequireAuthentication отработал раньше
				slog.Error("RequireRole: сессия не найдена в контексте, хотя ожидалась.")
				writeError(w, http.StatusUnauthorized, "Доступ запрещен: пользователь не аутентифицирован.")
				return
			}

			if !slices.Contains(allowedRoles, sess.UserRole) {
				slog.Warn("Доступ запрещен: недостаточная роль", "userID", sess.UserID, "userRole", sess.UserRole, "requiredRoles", allowedRoles, "path", r.URL.Path)
				writeError(w, http.StatusForbidden, "Доступ запрещен: у вас нет необходимых прав для доступа к этому ресурсу.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
