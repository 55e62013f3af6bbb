// internal/handlers/reviews.go
package handlers

import (
	"net/http"

	"helper-admin.kz/internal/models"
)

func (h *AppHandlers) ListReviewsHandler(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.Store.ListReviews(r.Context(), listParams(r, "status", "master_id", "rating"))
	writeDegraded(w, reviews, err)
}

type reviewStatusForm struct {
	Status models.ReviewStatus `json:"status" validate:"required,oneof=pending approved rejected"`
}

// SetReviewStatusHandler - модерация отзыва.
func (h *AppHandlers) SetReviewStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form reviewStatusForm
	if !decodeForm(w, r, &form) {
		return
	}
	review, err := h.Store.SetReviewStatus(r.Context(), id, form.Status)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, review)
}

func (h *AppHandlers) DeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteReview(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
