// internal/handlers/orders.go
package handlers

import (
	"net/http"
	"strconv"
)

func (h *AppHandlers) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListOrders(r.Context(), listParams(r, "status", "category_id", "user_id", "master_id"))
	writeDegraded(w, orders, err)
}

// RecentOrdersHandler - последние заказы для главной страницы, ?limit=N (по умолчанию 5).
func (h *AppHandlers) RecentOrdersHandler(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.Store.RecentOrders(r.Context(), n)
	writeDegraded(w, orders, err)
}

func (h *AppHandlers) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.Store.GetOrder(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

func (h *AppHandlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context(), listParams(r, "status", "method", "order_id", "master_id"))
	writeDegraded(w, payments, err)
}
