// internal/handlers/chat.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"helper-admin.kz/internal/middleware"
	"helper-admin.kz/internal/models"
	"helper-admin.kz/internal/validation"
)

func roomParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	room := chi.URLParam(r, "room")
	if errs := validation.ValidateVar("room_id", room, "required,room_id"); len(errs) > 0 {
		writeValidation(w, errs)
		return "", false
	}
	return room, true
}

func (h *AppHandlers) ListChatRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListChatRooms(r.Context())
	writeDegraded(w, rooms, err)
}

func (h *AppHandlers) ListChatMessagesHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := roomParam(w, r)
	if !ok {
		return
	}
	messages, err := h.Store.ListChatMessages(r.Context(), room)
	writeDegraded(w, messages, err)
}

// SendChatMessageHandler отправляет сообщение от имени вошедшего администратора.
func (h *AppHandlers) SendChatMessageHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := roomParam(w, r)
	if !ok {
		return
	}
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Требуется вход в панель.")
		return
	}
	var form models.ChatMessageForm
	if !decodeForm(w, r, &form) {
		return
	}
	msg, err := h.Store.SendChatMessage(r.Context(), room, sess.UserID, form)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, msg)
}

func (h *AppHandlers) MarkRoomReadHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := roomParam(w, r)
	if !ok {
		return
	}
	updated, err := h.Store.MarkRoomRead(r.Context(), room)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"updated": updated})
}
