package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"helper-admin.kz/internal/auth"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireAuthenticationAndRole(t *testing.T) {
	tests := []struct {
		name     string
		session  auth.Session
		wantCode int
	}{
		{"anonymous", auth.Session{}, http.StatusUnauthorized},
		{"admin", auth.Session{IsAuthenticated: true, UserID: 1, UserRole: "admin"}, http.StatusOK},
		{"support", auth.Session{IsAuthenticated: true, UserID: 2, UserRole: "support"}, http.StatusOK},
		{"unknown role", auth.Session{IsAuthenticated: true, UserID: 3, UserRole: "guest"}, http.StatusForbidden},
		{"no user id", auth.Session{IsAuthenticated: true, UserRole: "admin"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &auth.MemorySessions{}
			sessions.Set(context.Background(), tt.session)
			h := RequireAuthentication(sessions)(RequireRole("admin", "moderator", "support")(okHandler))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Code != http.StatusOK && rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
				t.Errorf("ошибка должна быть в JSON, Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("wildcard preflight", func(t *testing.T) {
		h := CORS([]string{"*"})(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/functions/v1/api/orders", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %d, want 204", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
		if rec.Header().Get("Access-Control-Allow-Methods") != corsAllowMethods {
			t.Errorf("Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
		}
	})

	t.Run("headers on error responses", func(t *testing.T) {
		failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusBadGateway, "boom")
		})
		h := CORS([]string{"https://panel.helper.kz"})(failing)
		req := httptest.NewRequest(http.MethodGet, "/functions/v1/api/orders", nil)
		req.Header.Set("Origin", "https://panel.helper.kz")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("code = %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://panel.helper.kz" {
			t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("foreign origin", func(t *testing.T) {
		h := CORS([]string{"https://panel.helper.kz"})(okHandler)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("чужой Origin не должен получать Allow-Origin")
		}
	})
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(0.001, 2)
	h := l.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("другой IP ограничен: %d", rec.Code)
	}

	l.evict(0)
	if len(l.clients) != 0 {
		t.Errorf("после очистки осталось %d лимитеров", len(l.clients))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	if got := clientIP(req); got != "1.2.3.4" {
		t.Errorf("clientIP = %q", got)
	}
}
