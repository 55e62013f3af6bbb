// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"helper-admin.kz/internal/middleware"
	"helper-admin.kz/internal/models"
)

// RouterDeps - то, что собирается в main и не нужно самим обработчикам.
type RouterDeps struct {
	SessionManager *scs.SessionManager
	Limiter        *middleware.RateLimiter
	Realtime       http.Handler
	Metrics        http.Handler
}

var panelRoles = []string{models.RoleAdmin, models.RoleModerator, models.RoleSupport}

func (h *AppHandlers) Router(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.CleanPath)

	loadAndSave := func(next http.Handler) http.Handler { return next }
	loadOnly := loadAndSave
	if deps.SessionManager != nil {
		loadAndSave = deps.SessionManager.LoadAndSave
		loadOnly = middleware.LoadSession(deps.SessionManager)
	}
	login := http.Handler(http.HandlerFunc(h.LoginHandler))
	if deps.Limiter != nil {
		login = deps.Limiter.Middleware(login)
	}
	csrf := func(next http.Handler) http.Handler {
		return middleware.NoSurfMiddleware(next, middleware.CSRFOptions{
			IsProduction:      h.Config.IsProduction(),
			AuthKey:           h.Config.CSRFAuthKey,
			TrustedOrigins:    h.Config.CORS.AllowedOrigins,
			TrustProxyHeaders: h.Config.TrustProxyHeaders,
		})
	}
	requireAuth := middleware.RequireAuthentication(h.Sessions)

	r.Get("/healthz", h.HealthHandler)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(middleware.CORS(h.Config.CORS.AllowedOrigins))
		r.Use(loadAndSave)
		r.HandleFunc("/api/{table}", h.PublicTableHandler)
		r.With(requireAuth).HandleFunc("/admin/{table}", h.AdminTableHandler)
	})

	r.Route("/api", func(r chi.Router) {
		if deps.Realtime != nil {
			r.Group(func(r chi.Router) {
				r.Use(loadOnly, requireAuth, middleware.RequireRole(panelRoles...))
				r.Get("/realtime", deps.Realtime.ServeHTTP)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(loadAndSave)
			r.Method(http.MethodPost, "/auth/login", login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, middleware.RequireRole(panelRoles...), csrf)

				r.Post("/auth/logout", h.LogoutHandler)
				r.Get("/auth/me", h.MeHandler)

				r.Get("/dashboard/stats", h.DashboardStatsHandler)
				r.Get("/dashboard/overview", h.OverviewHandler)
				r.Get("/stats/monthly", h.MonthlyRevenueHandler)
				r.Get("/stats/monthly/export", h.MonthlyExportHandler)

				r.Get("/users", h.ListUsersHandler)
				r.Get("/users/{id}", h.GetUserHandler)
				r.Post("/users/{id}/block", h.BlockUserHandler)

				r.Get("/masters", h.ListMastersHandler)
				r.Get("/masters/{id}", h.GetMasterHandler)
				r.Post("/masters/{id}/status", h.SetMasterStatusHandler)
				r.Post("/masters/{id}/verified", h.ToggleMasterVerifiedHandler)
				r.Post("/masters/{id}/pro", h.ToggleMasterProHandler)

				r.Get("/orders", h.ListOrdersHandler)
				r.Get("/orders/recent", h.RecentOrdersHandler)
				r.Get("/orders/{id}", h.GetOrderHandler)
				r.Get("/payments", h.ListPaymentsHandler)

				r.Get("/reviews", h.ListReviewsHandler)
				r.Post("/reviews/{id}/status", h.SetReviewStatusHandler)
				r.Delete("/reviews/{id}", h.DeleteReviewHandler)

				r.Get("/categories", h.ListCategoriesHandler)
				r.Post("/categories", h.CreateCategoryHandler)
				r.Put("/categories/{id}", h.UpdateCategoryHandler)
				r.Delete("/categories/{id}", h.DeleteCategoryHandler)
				r.Post("/categories/{id}/toggle", h.ToggleCategoryHandler)

				r.Get("/notifications", h.ListNotificationsHandler)
				r.Post("/notifications", h.CreateNotificationHandler)
				r.Get("/notifications/unread-count", h.UnreadNotificationsHandler)
				r.Post("/notifications/read-all", h.MarkAllNotificationsReadHandler)
				r.Post("/notifications/{id}/read", h.MarkNotificationReadHandler)

				r.Get("/chat/rooms", h.ListChatRoomsHandler)
				r.Get("/chat/rooms/{room}/messages", h.ListChatMessagesHandler)
				r.Post("/chat/rooms/{room}/messages", h.SendChatMessageHandler)
				r.Post("/chat/rooms/{room}/read", h.MarkRoomReadHandler)
			})
		})
	})

	return r
}

type healthResponse struct {
	Status          string `json:"status"`
	StoreConfigured bool   `json:"store_configured"`
}

// HealthHandler сообщает, что процесс жив, и настроено ли хранилище.
func (h *AppHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", StoreConfigured: h.Store.Configured()})
}
