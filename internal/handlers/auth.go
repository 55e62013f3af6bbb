// internal/handlers/auth.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"helper-admin.kz/internal/auth"
	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/middleware"
	"helper-admin.kz/internal/models"
)

type meResponse struct {
	auth.Session
	CSRFToken string `json:"csrf_token"`
}

// LoginHandler проверяет учётные данные и открывает сессию панели.
func (h *AppHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var form models.LoginForm
	if !decodeForm(w, r, &form) {
		return
	}

	user, err := h.Auth.Login(r.Context(), form.Identifier, form.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Неверный email или пароль")
		return
	case errors.Is(err, backend.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Хранилище не настроено, вход невозможен")
		return
	case err != nil:
		slog.Error("LoginHandler: ошибка входа", "error", err)
		writeError(w, http.StatusBadGateway, "Не удалось проверить учётные данные")
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *AppHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context()); err != nil {
		slog.Error("LogoutHandler: ошибка удаления сессии", "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось завершить сессию")
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"ok": true})
}

// MeHandler отдаёт отметку входа и CSRF-токен для последующих изменяющих запросов.
func (h *AppHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Требуется вход в панель.")
		return
	}
	writeData(w, http.StatusOK, meResponse{Session: sess, CSRFToken: middleware.CSRFToken(r)})
}
