// internal/handlers/notifications.go
package handlers

import (
	"net/http"

	"helper-admin.kz/internal/models"
)

// ListNotificationsHandler - уведомления для панели (user_type admin и all).
func (h *AppHandlers) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Store.ListNotifications(r.Context(), listParams(r, "type", "priority", "is_read"))
	writeDegraded(w, notifications, err)
}

func (h *AppHandlers) CreateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var form models.NotificationForm
	if !decodeForm(w, r, &form) {
		return
	}
	n, err := h.Store.CreateNotification(r.Context(), form)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, n)
}

func (h *AppHandlers) MarkNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	n, err := h.Store.MarkNotificationRead(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, n)
}

func (h *AppHandlers) MarkAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	updated, err := h.Store.MarkAllNotificationsRead(r.Context())
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *AppHandlers) UnreadNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.UnreadNotificationCount(r.Context())
	writeDegraded(w, map[string]int{"unread": n}, err)
}
