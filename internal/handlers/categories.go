// internal/handlers/categories.go
package handlers

import (
	"net/http"

	"helper-admin.kz/internal/models"
)

func (h *AppHandlers) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context(), listParams(r, "is_active"))
	writeDegraded(w, categories, err)
}

func (h *AppHandlers) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var form models.CategoryForm
	if !decodeForm(w, r, &form) {
		return
	}
	category, err := h.Store.CreateCategory(r.Context(), form)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, category)
}

func (h *AppHandlers) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form models.CategoryForm
	if !decodeForm(w, r, &form) {
		return
	}
	category, err := h.Store.UpdateCategory(r.Context(), id, form)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, category)
}

func (h *AppHandlers) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteCategory(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AppHandlers) ToggleCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	category, err := h.Store.ToggleCategoryActive(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, category)
}
