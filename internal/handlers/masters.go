// internal/handlers/masters.go
package handlers

import (
	"net/http"

	"helper-admin.kz/internal/models"
)

func (h *AppHandlers) ListMastersHandler(w http.ResponseWriter, r *http.Request) {
	masters, err := h.Store.ListMasters(r.Context(), listParams(r, "status", "category_id", "is_verified", "is_pro"))
	writeDegraded(w, masters, err)
}

func (h *AppHandlers) GetMasterHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	master, err := h.Store.GetMaster(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, master)
}

type masterStatusForm struct {
	Status models.MasterStatus `json:"status" validate:"required,oneof=active inactive blocked"`
}

func (h *AppHandlers) SetMasterStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form masterStatusForm
	if !decodeForm(w, r, &form) {
		return
	}
	master, err := h.Store.SetMasterStatus(r.Context(), id, form.Status)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, master)
}

// ToggleMasterVerifiedHandler переключает отметку проверенного мастера.
func (h *AppHandlers) ToggleMasterVerifiedHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	master, err := h.Store.ToggleMasterVerified(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, master)
}

func (h *AppHandlers) ToggleMasterProHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	master, err := h.Store.ToggleMasterPro(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, master)
}
