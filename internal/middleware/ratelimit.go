// internal/middleware/ratelimit.go
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter хранит информацию о лимитере для каждого IP
type ClientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает число запросов с одного IP.
// rps - это количество разрешенных запросов в секунду.
// burst - это максимальное количество запросов, которые могут быть обработаны в "пачке" (burst).
type RateLimiter struct {
	rps   float64
	burst int

	mu      sync.Mutex
	clients map[string]*ClientLimiter
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{rps: rps, burst: burst, clients: make(map[string]*ClientLimiter)}
}

// Cleanup периодически удаляет лимитеры неактивных IP до отмены контекста.
func (l *RateLimiter) Cleanup(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict(idle)
		}
	}
}

func (l *RateLimiter) evict(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, client := range l.clients {
		if time.Since(client.lastSeen) > idle {
			delete(l.clients, ip)
			slog.Debug("Удален лимитер для неактивного IP", "ip", ip)
		}
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		l.mu.Lock()
		clientData, found := l.clients[ip]
		if !found {
			clientData = &ClientLimiter{
				limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst),
			}
			l.clients[ip] = clientData
			slog.Debug("Создан новый лимитер", "ip", ip, "rps", l.rps, "burst", l.burst)
		}
		clientData.lastSeen = time.Now()
		limiterInstance := clientData.limiter
		l.mu.Unlock()

		if !limiterInstance.Allow() {
			slog.Warn("Превышен лимит запросов (Rate Limit)", "ip", ip, "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "Слишком много запросов. Пожалуйста, попробуйте позже.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
