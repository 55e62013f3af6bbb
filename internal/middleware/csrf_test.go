package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// csrfPair выдаёт cookie и токен так же, как /api/auth/me отдаёт их панели.
func csrfPair(t *testing.T, h http.Handler) (*http.Cookie, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/token", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("nosurf не выставил cookie")
	}
	body, _ := io.ReadAll(rec.Body)
	if len(body) == 0 {
		t.Fatal("пустой токен")
	}
	return cookies[0], string(body)
}

func TestNoSurfOrigins(t *testing.T) {
	tokenHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			io.WriteString(w, CSRFToken(r))
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		opts     CSRFOptions
		origin   string
		proto    string
		wantCode int
	}{
		{"same origin over http", CSRFOptions{}, "http://example.com", "", http.StatusOK},
		{"trusted spa origin", CSRFOptions{TrustedOrigins: []string{"*", "https://panel.helper.kz/"}}, "https://panel.helper.kz", "", http.StatusOK},
		{"foreign origin", CSRFOptions{TrustedOrigins: []string{"*"}}, "http://evil.example", "", http.StatusForbidden},
		{"https behind trusted proxy", CSRFOptions{TrustProxyHeaders: true}, "https://example.com", "https", http.StatusOK},
		{"forwarded proto ignored", CSRFOptions{}, "https://example.com", "https", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NoSurfMiddleware(tokenHandler, tt.opts)
			cookie, token := csrfPair(t, h)

			req := httptest.NewRequest(http.MethodPost, "http://example.com/api/categories", nil)
			req.AddCookie(cookie)
			req.Header.Set("X-CSRF-Token", token)
			req.Header.Set("Origin", tt.origin)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d, body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	t.Run("missing token", func(t *testing.T) {
		h := NoSurfMiddleware(tokenHandler, CSRFOptions{})
		cookie, _ := csrfPair(t, h)
		req := httptest.NewRequest(http.MethodPost, "http://example.com/api/categories", nil)
		req.AddCookie(cookie)
		req.Header.Set("Origin", "http://example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("code = %d, want 403", rec.Code)
		}
	})
}
