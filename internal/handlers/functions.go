// internal/handlers/functions.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/middleware"
	"helper-admin.kz/internal/store"
)

// PublicTableHandler - /functions/v1/api/{table}: без входа доступно только чтение справочников,
// остальное требует сессии панели.
func (h *AppHandlers) PublicTableHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !store.AnonymousReadable(chi.URLParam(r, "table")) {
		sess, err := h.Sessions.Get(r.Context())
		if err != nil || !sess.IsAuthenticated {
			writeError(w, http.StatusUnauthorized, "Требуется вход в панель.")
			return
		}
	}
	h.tableCRUD(w, r)
}

// AdminTableHandler - /functions/v1/admin/{table}, целиком за RequireAuthentication.
func (h *AppHandlers) AdminTableHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "Требуется вход в панель.")
		return
	}
	h.tableCRUD(w, r)
}

func (h *AppHandlers) tableCRUD(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	switch r.Method {
	case http.MethodGet:
		filters, ok := rowFilters(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "Некорректное имя колонки в фильтре")
			return
		}
		p := listParams(r)
		p.Filters = filters
		rows, err := h.Store.ListRows(r.Context(), table, p)
		if err != nil && isClientError(err) {
			writeStoreError(w, r, err)
			return
		}
		writeDegraded(w, rows, err)

	case http.MethodPost:
		rows, ok := decodeRows(w, r)
		if !ok {
			return
		}
		created, err := h.Store.InsertRows(r.Context(), table, rows)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, created)

	case http.MethodPut:
		filters, ok := requireFilters(w, r)
		if !ok {
			return
		}
		var patch backend.Row
		if !decodeJSON(w, r, &patch) {
			return
		}
		if len(patch) == 0 {
			writeError(w, http.StatusBadRequest, "Пустой набор изменений")
			return
		}
		updated, err := h.Store.UpdateRows(r.Context(), table, filters, patch)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, updated)

	case http.MethodDelete:
		filters, ok := requireFilters(w, r)
		if !ok {
			return
		}
		deleted, err := h.Store.DeleteRows(r.Context(), table, filters)
		if err != nil {
			writeStoreError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, deleted)

	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "Метод не поддерживается")
	}
}

func isClientError(err error) bool {
	return errors.Is(err, backend.ErrUnknownTable) || errors.Is(err, backend.ErrInvalidQuery)
}

// requireFilters не даёт изменить или удалить всю таблицу одним запросом.
func requireFilters(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	filters, ok := rowFilters(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Некорректное имя колонки в фильтре")
		return nil, false
	}
	if len(filters) == 0 {
		writeError(w, http.StatusBadRequest, "Нужен хотя бы один фильтр, например ?id=1")
		return nil, false
	}
	return filters, true
}

// decodeRows принимает один объект или массив объектов.
func decodeRows(w http.ResponseWriter, r *http.Request) ([]backend.Row, bool) {
	var raw json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return nil, false
	}
	var rows []backend.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		var row backend.Row
		if err := json.Unmarshal(raw, &row); err != nil {
			slog.Warn("Тело запроса не объект и не массив объектов", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusBadRequest, "Ожидается объект или массив объектов")
			return nil, false
		}
		rows = []backend.Row{row}
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "Нет строк для вставки")
		return nil, false
	}
	return rows, true
}
