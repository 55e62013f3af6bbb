// internal/handlers/users.go
package handlers

import "net/http"

func (h *AppHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context(), listParams(r, "city", "is_blocked"))
	writeDegraded(w, users, err)
}

func (h *AppHandlers) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

type blockForm struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

// BlockUserHandler блокирует или разблокирует клиента.
func (h *AppHandlers) BlockUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form blockForm
	if !decodeForm(w, r, &form) {
		return
	}
	user, err := h.Store.SetUserBlocked(r.Context(), id, *form.Blocked)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

