// internal/middleware/csrf.go
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/justinas/nosurf"
)

// CSRFOptions - настройки проверки источника запроса.
type CSRFOptions struct {
	IsProduction bool
	// AuthKey проверяется только на наличие: токены nosurf генерирует сам.
	AuthKey string
	// TrustedOrigins - сторонние источники (scheme://host), которым разрешены изменяющие запросы.
	TrustedOrigins []string
	// TrustProxyHeaders разрешает определять HTTPS по X-Forwarded-Proto за обратным прокси.
	TrustProxyHeaders bool
}

// NoSurfMiddleware обеспечивает CSRF-защиту для cookie-маршрутов API.
// Токен отдаётся клиенту в /api/auth/me и возвращается в заголовке X-CSRF-Token.
func NoSurfMiddleware(next http.Handler, opts CSRFOptions) http.Handler {
	csrfHandler := nosurf.New(next)

	if opts.AuthKey == "" {
		if opts.IsProduction {
			slog.Error("КРИТИЧЕСКАЯ ОШИБКА: CSRF_AUTH_KEY не установлена в переменных окружения для production! Это серьезная уязвимость.")
		} else {
			slog.Warn("CSRF_AUTH_KEY не установлена! Используется ключ, генерируемый nosurf по умолчанию.")
		}
	}

	csrfHandler.SetIsTLSFunc(func(r *http.Request) bool {
		if r.TLS != nil {
			return true
		}
		return opts.TrustProxyHeaders && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
	})

	if origins := trustedOrigins(opts.TrustedOrigins); len(origins) > 0 {
		isAllowed, err := nosurf.StaticOrigins(origins...)
		if err != nil {
			slog.Error("Некорректный список доверенных источников для CSRF", "origins", origins, "error", err)
		} else {
			csrfHandler.SetIsAllowedOriginFunc(isAllowed)
		}
	}

	csrfHandler.SetBaseCookie(http.Cookie{
		HttpOnly: true,
		Path:     "/",
		Secure:   opts.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})

	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("Неудачная проверка CSRF токена", "path", r.URL.Path, "method", r.Method, "reason", nosurf.Reason(r))
		writeError(w, http.StatusForbidden, "Ошибка безопасности: Неверный или отсутствующий CSRF токен.")
	}))

	return csrfHandler
}

// trustedOrigins отбрасывает "*" и пустые значения: для CSRF нужен явный источник.
func trustedOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "" || o == "*" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// CSRFToken - токен для текущего запроса.
func CSRFToken(r *http.Request) string {
	return nosurf.Token(r)
}
