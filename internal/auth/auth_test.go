package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"helper-admin.kz/internal/backend"
)

func newTestService(t *testing.T, admins ...backend.Row) (*Service, *backend.Memory, *MemorySessions) {
	t.Helper()
	hub := backend.NewHub()
	mem := backend.NewMemory(hub)
	mem.Seed("admin_users", admins...)
	sessions := &MemorySessions{}
	svc := NewService(backend.New(mem, hub), sessions, nil)
	svc.now = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }
	return svc, mem, sessions
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("s3cret!pass")
	if err != nil {
		t.Fatal(err)
	}
	admins := []backend.Row{
		{"id": int64(1), "email": "admin@helper.kz", "username": "admin", "password": "admin123", "role": "admin", "is_active": true},
		{"id": int64(2), "email": "off@helper.kz", "username": "off", "password": "admin123", "role": "support", "is_active": false},
		{"id": int64(3), "email": "mod@helper.kz", "username": "mod", "password": hash, "role": "moderator", "is_active": int64(1)},
	}

	tests := []struct {
		name       string
		identifier string
		password   string
		wantID     int64
		wantErr    error
	}{
		{"email plaintext", "admin@helper.kz", "admin123", 1, nil},
		{"email case insensitive", "Admin@Helper.kz", "admin123", 1, nil},
		{"username", "admin", "admin123", 1, nil},
		{"wrong password", "admin@helper.kz", "admin124", 0, ErrInvalidCredentials},
		{"inactive with matching password", "off@helper.kz", "admin123", 0, ErrInvalidCredentials},
		{"bcrypt hash", "mod", "s3cret!pass", 3, nil},
		{"hash is not a password", "mod", hash, 0, ErrInvalidCredentials},
		{"unknown", "ghost@helper.kz", "x", 0, ErrInvalidCredentials},
		{"empty password", "admin", "", 0, ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem, sessions := newTestService(t, admins...)
			user, err := svc.Login(context.Background(), tt.identifier, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			sess, _ := sessions.Get(context.Background())
			if tt.wantErr != nil {
				if user != nil || sess.IsAuthenticated {
					t.Errorf("при ошибке не должно быть пользователя и сессии: %+v %+v", user, sess)
				}
				return
			}
			if user.ID != tt.wantID {
				t.Errorf("user.ID = %d, want %d", user.ID, tt.wantID)
			}
			if user.Password != "" {
				t.Error("пароль не должен возвращаться")
			}
			if !sess.IsAuthenticated || sess.UserID != tt.wantID || sess.UserRole == "" {
				t.Errorf("session = %+v", sess)
			}
			for _, r := range mem.Rows("admin_users") {
				if r["id"] == tt.wantID && r["last_login"] == nil {
					t.Error("last_login не обновлён")
				}
			}
		})
	}
}

func TestLoginBackendError(t *testing.T) {
	svc, mem, _ := newTestService(t)
	mem.FailTable("admin_users", errors.New("down"))
	_, err := svc.Login(context.Background(), "admin", "x")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ошибку хранилища", err)
	}

	offline := NewService(nil, &MemorySessions{}, nil)
	if _, err := offline.Login(context.Background(), "admin", "x"); !errors.Is(err, backend.ErrNotConfigured) {
		t.Errorf("без backend err = %v", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	svc, _, sessions := newTestService(t, backend.Row{"email": "a@helper.kz", "password": "p", "is_active": true, "role": "admin"})
	ctx := context.Background()
	if _, err := svc.Login(ctx, "a@helper.kz", "p"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if sess, _ := sessions.Get(ctx); sess.IsAuthenticated {
		t.Error("сессия не очищена")
	}
}

func TestSeedFirstAdmin(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SeedFirstAdmin(ctx, "Root@Helper.kz", "Str0ng!pass"); err != nil {
		t.Fatal(err)
	}
	if err := svc.SeedFirstAdmin(ctx, "root@helper.kz", "other"); err != nil {
		t.Fatal(err)
	}
	rows := mem.Rows("admin_users")
	if len(rows) != 1 {
		t.Fatalf("администраторов %d, want 1", len(rows))
	}
	stored, _ := rows[0]["password"].(string)
	if !IsPasswordHash(stored) {
		t.Errorf("пароль должен храниться хэшем, got %q", stored)
	}
	if rows[0]["username"] != "root" {
		t.Errorf("username = %v", rows[0]["username"])
	}
	if _, err := svc.Login(ctx, "root", "Str0ng!pass"); err != nil {
		t.Errorf("вход созданным администратором: %v", err)
	}
}

func TestPasswordHelpers(t *testing.T) {
	if IsPasswordHash("admin123") {
		t.Error("открытый пароль принят за хэш")
	}
	if PasswordMatches("", "") {
		t.Error("пустой пароль не должен совпадать")
	}
	if !IsPasswordComplex("Abc123!x") || IsPasswordComplex("abcdefgh") {
		t.Error("IsPasswordComplex")
	}
}

func TestSCSSessionsRoundTrip(t *testing.T) {
	sm := scs.New()
	sm.Store = memstore.New()
	repo := NewSCSSessions(sm)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Set(r.Context(), Session{IsAuthenticated: true, UserEmail: "a@helper.kz", UserID: 42, UserRole: "admin"}); err != nil {
			t.Errorf("Set: %v", err)
		}
	})
	var (
		got       Session
		rawUserID string
	)
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = repo.Get(r.Context())
		if err != nil {
			t.Errorf("Get: %v", err)
		}
		rawUserID = sm.GetString(r.Context(), KeyUserID)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Clear(r.Context()); err != nil {
			t.Errorf("Clear: %v", err)
		}
	})
	h := sm.LoadAndSave(mux)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("сессионная cookie не выставлена")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if !got.IsAuthenticated || got.UserID != 42 || got.UserEmail != "a@helper.kz" || got.UserRole != "admin" {
		t.Errorf("session = %+v", got)
	}
	if rawUserID != "42" {
		t.Errorf("userId должен храниться строкой, got %q", rawUserID)
	}

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.IsAuthenticated {
		t.Error("после Clear сессия всё ещё активна")
	}
	if rawUserID != "" {
		t.Errorf("после Clear userId = %q, want пусто", rawUserID)
	}
}
