// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"helper-admin.kz/internal/auth"
	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/config"
	"helper-admin.kz/internal/handlers"
	"helper-admin.kz/internal/metrics"
	"helper-admin.kz/internal/middleware"
	"helper-admin.kz/internal/realtime"
	"helper-admin.kz/internal/stats"
	"helper-admin.kz/internal/store"
)

func main() {
	configPath := "configs/config.yaml"
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Критическая ошибка: не удалось загрузить конфигурацию: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Запуск панели Helper...", "app_env", cfg.AppEnv, "timezone", cfg.Location.String())

	if err := run(cfg); err != nil {
		slog.Error("Критическая ошибка: сервер остановлен", "error", err)
		os.Exit(1)
	}
	slog.Info("Сервер остановлен")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	hub := backend.NewHub()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Redis.Address != "" {
		rdb := backend.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := backend.PingRedis(ctx, rdb); err != nil {
			slog.Error("Redis недоступен, изменения не будут передаваться между экземплярами", "address", cfg.Redis.Address, "error", err)
		} else {
			bridge := backend.NewRedisBridge(rdb, cfg.Redis.Channel, hub)
			g.Go(func() error {
				if err := bridge.Run(gctx); err != nil {
					slog.Error("Мост изменений Redis остановлен", "error", err)
				}
				return nil
			})
		}
	}

	var client backend.Client
	sessionManager := newSessionManager(cfg)
	if cfg.Database.Configured() {
		db, err := backend.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("не удалось подключиться к базе данных: %w", err)
		}
		defer db.Close()
		if err := backend.RunMigrations(db, cfg.Database.DBName, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		exec := backend.NewMySQL(db, hub)
		exec.SetObserver(func(table string, op backend.Op, took time.Duration, err error) {
			m.ObserveQuery(table, op.String(), took, err)
		})
		client = backend.New(exec, hub)
		sessionManager.Store = mysqlstore.New(db)
	} else {
		slog.Warn("База данных не настроена: списки и статистика будут пустыми, вход в панель недоступен")
	}
	slog.Info("Менеджер сессий инициализирован", "mysqlstore", client != nil, "lifetime", sessionManager.Lifetime, "secure_cookie", sessionManager.Cookie.Secure)

	sessions := auth.NewSCSSessions(sessionManager)
	authService := auth.NewService(client, sessions, m)

	if email := os.Getenv("FIRST_ADMIN_EMAIL"); email != "" {
		if err := authService.SeedFirstAdmin(ctx, email, os.Getenv("FIRST_ADMIN_PASSWORD")); err != nil {
			slog.Error("Не удалось создать первого администратора", "email", email, "error", err)
		}
	} else {
		slog.Info("Переменная окружения FIRST_ADMIN_EMAIL не установлена, первый администратор не создаётся автоматически.")
	}

	appHandlers := &handlers.AppHandlers{
		Config:   cfg,
		Store:    store.New(client),
		Stats:    stats.NewAggregator(client, cfg.Location, cfg.Stats.DefaultMonths, m),
		Auth:     authService,
		Sessions: sessions,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	g.Go(func() error {
		limiter.Cleanup(gctx, time.Minute, 3*time.Minute)
		return nil
	})

	deps := handlers.RouterDeps{
		SessionManager: sessionManager,
		Limiter:        limiter,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if cfg.Realtime.Enabled {
		adapter := realtime.NewAdapter(hub, m)
		deps.Realtime = realtime.NewBridge(adapter, store.PublicTables, middleware.AllowOrigin(cfg.CORS.AllowedOrigins))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      appHandlers.Router(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		slog.Info("Панель Helper запущена и слушает", "address", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("не удалось запустить HTTP-сервер на %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newSessionManager настраивает cookie сессии. Хранилище по умолчанию в памяти, с БД - mysqlstore.
func newSessionManager(cfg *config.Config) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = cfg.Session.Lifetime()
	sm.Cookie.Name = cfg.Session.CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.IsProduction()
	sm.Cookie.Path = "/"
	return sm
}
