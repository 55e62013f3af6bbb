// internal/auth/session.go
package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/alexedwards/scs/v2"
)

// Ключи сессии. Значения хранятся строками.
const (
	KeyIsAuthenticated = "isAuthenticated"
	KeyUserEmail       = "userEmail"
	KeyUserID          = "userId"
	KeyUserRole        = "userRole"
)

// Session - отметка входа администратора.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserEmail       string `json:"userEmail"`
	UserID          int64  `json:"userId"`
	UserRole        string `json:"userRole"`
}

type SessionRepository interface {
	Get(ctx context.Context) (Session, error)
	Set(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// SCSSessions хранит отметку входа в сессии scs. ctx должен пройти через SessionManager.LoadAndSave.
type SCSSessions struct {
	sm *scs.SessionManager
}

func NewSCSSessions(sm *scs.SessionManager) *SCSSessions {
	return &SCSSessions{sm: sm}
}

func (s *SCSSessions) Get(ctx context.Context) (Session, error) {
	if s.sm.GetString(ctx, KeyIsAuthenticated) != "true" {
		return Session{}, nil
	}
	id, err := strconv.ParseInt(s.sm.GetString(ctx, KeyUserID), 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("некорректный userId в сессии: %w", err)
	}
	return Session{
		IsAuthenticated: true,
		UserEmail:       s.sm.GetString(ctx, KeyUserEmail),
		UserID:          id,
		UserRole:        s.sm.GetString(ctx, KeyUserRole),
	}, nil
}

// Set обновляет токен сессии и сохраняет отметку входа.
func (s *SCSSessions) Set(ctx context.Context, sess Session) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("ошибка обновления токена сессии: %w", err)
	}
	s.sm.Put(ctx, KeyIsAuthenticated, strconv.FormatBool(sess.IsAuthenticated))
	s.sm.Put(ctx, KeyUserEmail, sess.UserEmail)
	s.sm.Put(ctx, KeyUserID, strconv.FormatInt(sess.UserID, 10))
	s.sm.Put(ctx, KeyUserRole, sess.UserRole)
	return nil
}

func (s *SCSSessions) Clear(ctx context.Context) error {
	if err := s.sm.Destroy(ctx); err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}
	return nil
}

// MemorySessions - одна сессия в памяти, для тестов и утилит.
type MemorySessions struct {
	mu   sync.Mutex
	sess Session
}

func (m *MemorySessions) Get(context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess, nil
}

func (m *MemorySessions) Set(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s
	return nil
}

func (m *MemorySessions) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{}
	return nil
}
