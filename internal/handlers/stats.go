// internal/handlers/stats.go
package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"helper-admin.kz/internal/export"
	"helper-admin.kz/internal/stats"
)

func (h *AppHandlers) monthsParam(r *http.Request) int {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	if months <= 0 {
		months = h.Config.Stats.DefaultMonths
	}
	return stats.ClampMonths(months)
}

// DashboardStatsHandler - сводные показатели. Ошибка любого запроса даёт 502 без частичных данных.
func (h *AppHandlers) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Stats.Dashboard(r.Context(), h.now())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Статистика недоступна")
		return
	}
	writeData(w, http.StatusOK, ds)
}

func (h *AppHandlers) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	ov, err := h.Stats.Overview(r.Context(), h.now())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Статистика недоступна")
		return
	}
	writeData(w, http.StatusOK, ov)
}

func (h *AppHandlers) MonthlyRevenueHandler(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Stats.MonthlyRevenue(r.Context(), h.monthsParam(r), h.now())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Статистика недоступна")
		return
	}
	writeData(w, http.StatusOK, rows)
}

// MonthlyExportHandler отдаёт помесячную выручку файлом xlsx.
func (h *AppHandlers) MonthlyExportHandler(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	months := h.monthsParam(r)
	rows, err := h.Stats.MonthlyRevenue(r.Context(), months, now)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Статистика недоступна")
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s: выручка за %d мес.", h.Config.SiteName, months)
	if err := export.WriteMonthly(&buf, rows, title); err != nil {
		slog.Error("MonthlyExportHandler: ошибка формирования отчёта", "error", err)
		writeError(w, http.StatusInternalServerError, "Не удалось сформировать отчёт")
		return
	}

	filename := fmt.Sprintf("revenue_%s.xlsx", now.In(h.location()).Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
