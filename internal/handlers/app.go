// internal/handlers/app.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"helper-admin.kz/internal/auth"
	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/config"
	"helper-admin.kz/internal/stats"
	"helper-admin.kz/internal/store"
	"helper-admin.kz/internal/validation"
)

const maxBodySize = 1 << 20

// AppHandlers - зависимости HTTP-слоя панели.
type AppHandlers struct {
	Config   *config.Config
	Store    *store.Store
	Stats    *stats.Aggregator
	Auth     *auth.Service
	Sessions auth.SessionRepository
	Now      func() time.Time
}

func (h *AppHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *AppHandlers) location() *time.Location {
	if h.Config == nil || h.Config.Location == nil {
		return time.Local
	}
	return h.Config.Location
}

// envelope - формат ответа API: данные и ошибка, как у клиента хранилища.
type envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Ошибка кодирования JSON ответа", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Error: &message})
}

// writeDegraded отдаёт пустой результат вместе с текстом ошибки: панель показывает пустое состояние.
func writeDegraded(w http.ResponseWriter, data any, err error) {
	if err == nil {
		writeData(w, http.StatusOK, data)
		return
	}
	msg := "Не удалось загрузить данные"
	writeJSON(w, http.StatusOK, envelope{Data: data, Error: &msg})
}

type validationResponse struct {
	Data   any                 `json:"data"`
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

func writeValidation(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Error:  "Проверьте правильность заполнения полей",
		Fields: errs,
	})
}

// writeStoreError переводит ошибку хранилища в HTTP-статус.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Запись не найдена")
	case errors.Is(err, backend.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Хранилище не настроено")
	case errors.Is(err, backend.ErrInvalidQuery), errors.Is(err, backend.ErrUnknownTable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, backend.ErrDuplicate):
		writeError(w, http.StatusConflict, "Запись уже существует")
	default:
		slog.Error("Ошибка обработки запроса", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, "Ошибка хранилища")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		slog.Warn("Некорректное тело запроса", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "Некорректный JSON в теле запроса")
		return false
	}
	return true
}

// decodeForm читает тело и проверяет его тегами validate.
func decodeForm(w http.ResponseWriter, r *http.Request, form any) bool {
	if !decodeJSON(w, r, form) {
		return false
	}
	if errs := validation.ValidateStruct(form); len(errs) > 0 {
		writeValidation(w, errs)
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Неверный ID")
		return 0, false
	}
	return id, true
}

// reservedParams - параметры запроса, не являющиеся фильтрами по колонкам.
var reservedParams = map[string]bool{
	"search": true, "order": true, "asc": true, "limit": true, "offset": true,
	"page": true, "months": true,
}

// listParams собирает ListParams из строки запроса. Фильтрами служат только колонки из allowed.
func listParams(r *http.Request, allowed ...string) store.ListParams {
	q := r.URL.Query()
	p := store.ListParams{
		Filters:   map[string]string{},
		Search:    q.Get("search"),
		Ascending: q.Get("asc") == "true",
	}
	if order := q.Get("order"); backend.ValidIdent(order) {
		p.OrderBy = order
	}
	p.Limit, _ = strconv.Atoi(q.Get("limit"))
	p.Offset, _ = strconv.Atoi(q.Get("offset"))
	for _, col := range allowed {
		if v := strings.TrimSpace(q.Get(col)); v != "" {
			p.Filters[col] = v
		}
	}
	return p
}

// rowFilters - фильтры на равенство для универсального CRUD: все параметры, кроме служебных.
func rowFilters(r *http.Request) (map[string]string, bool) {
	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		if !backend.ValidIdent(key) {
			return nil, false
		}
		filters[key] = values[0]
	}
	return filters, true
}
