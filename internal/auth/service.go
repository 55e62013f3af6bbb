// internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/metrics"
	"helper-admin.kz/internal/models"
)

var ErrInvalidCredentials = errors.New("неверный email или пароль")

const adminTable = "admin_users"

// Service проверяет учётные данные администраторов и ведёт отметку входа.
type Service struct {
	client   backend.Client
	sessions SessionRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(client backend.Client, sessions SessionRepository, m *metrics.Metrics) *Service {
	return &Service{client: client, sessions: sessions, metrics: m, now: time.Now}
}

func (s *Service) findActive(ctx context.Context, column, value string) (*models.AdminUser, error) {
	rows, err := s.client.Table(adminTable).
		Eq(column, value).
		Eq("is_active", true).
		Limit(1).
		Execute(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var u models.AdminUser
	if err := backend.DecodeRow(rows[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login ищет активного администратора по email, затем по имени пользователя, и сверяет пароль.
// Неактивная учётная запись отклоняется даже при верном пароле.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.AdminUser, error) {
	if s.client == nil {
		return nil, backend.ErrNotConfigured
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		s.metrics.LoginAttempt("rejected")
		return nil, ErrInvalidCredentials
	}

	user, err := s.findActive(ctx, "email", strings.ToLower(identifier))
	if err == nil && user == nil {
		user, err = s.findActive(ctx, "username", identifier)
	}
	if err != nil {
		s.metrics.LoginAttempt("error")
		slog.Error("Ошибка поиска администратора при входе", "identifier", identifier, "error", err)
		return nil, fmt.Errorf("ошибка проверки учётных данных: %w", err)
	}
	if user == nil || !user.IsActive.Bool() || !PasswordMatches(user.Password, password) {
		s.metrics.LoginAttempt("rejected")
		slog.Warn("Неудачная попытка входа в панель", "identifier", identifier)
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if _, err := s.client.Table(adminTable).Eq("id", user.ID).Update(ctx, backend.Row{"last_login": now}); err != nil {
		slog.Error("Не удалось обновить last_login", "userID", user.ID, "error", err)
	} else {
		user.LastLogin = models.Timestamp{Time: now}
	}

	if err := s.sessions.Set(ctx, Session{
		IsAuthenticated: true,
		UserEmail:       user.Email,
		UserID:          user.ID,
		UserRole:        user.Role,
	}); err != nil {
		return nil, err
	}
	user.Password = ""
	s.metrics.LoginAttempt("ok")
	slog.Info("Администратор вошёл в панель", "user_id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

func (s *Service) Logout(ctx context.Context) error {
	sess, _ := s.sessions.Get(ctx)
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	slog.Info("Администратор вышел", "user_id", sess.UserID, "role", sess.UserRole)
	return nil
}

// Current возвращает отметку входа текущего запроса; пустая Session - вход не выполнен.
func (s *Service) Current(ctx context.Context) (Session, error) {
	return s.sessions.Get(ctx)
}

// SeedFirstAdmin создаёт первого администратора с bcrypt-хэшем пароля, если такого email ещё нет.
func (s *Service) SeedFirstAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if s.client == nil {
		return backend.ErrNotConfigured
	}
	n, err := s.client.Table(adminTable).Eq("email", email).Count(ctx)
	if err != nil {
		return fmt.Errorf("ошибка проверки администратора %s: %w", email, err)
	}
	if n > 0 {
		slog.Debug("Первый администратор уже существует", "email", email)
		return nil
	}
	if !IsPasswordComplex(password) {
		slog.Warn("Пароль первого администратора слишком простой: нужны буквы, цифры и символы, не менее 8 знаков")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	username, _, _ := strings.Cut(email, "@")
	if _, err := s.client.Table(adminTable).Insert(ctx, backend.Row{
		"email":     email,
		"username":  username,
		"password":  hash,
		"full_name": "Administrator",
		"role":      models.RoleAdmin,
		"is_active": true,
	}); err != nil {
		return fmt.Errorf("ошибка создания первого администратора: %w", err)
	}
	slog.Info("Создан первый администратор", "email", email)
	return nil
}
