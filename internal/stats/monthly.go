// internal/stats/monthly.go
package stats

import (
	"time"

	"helper-admin.kz/internal/models"
)

const (
	DefaultMonths = 6
	MaxMonths     = 36
)

type MonthlyRow struct {
	Month         string  `json:"month"`
	Year          int     `json:"year"`
	MonthNum      int     `json:"month_num"`
	Revenue       float64 `json:"revenue"`
	Commission    float64 `json:"commission"`
	Orders        int     `json:"orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// ClampMonths приводит запрошенное число месяцев к [1, MaxMonths]; 0 и меньше - DefaultMonths.
func ClampMonths(months int) int {
	switch {
	case months <= 0:
		return DefaultMonths
	case months > MaxMonths:
		return MaxMonths
	}
	return months
}

// BucketMonthly раскладывает завершённые платежи по календарным месяцам за последние months
// месяцев, включая текущий. Строки идут от старого месяца к новому; платежи без даты не учитываются.
func BucketMonthly(payments []models.Payment, months int, now time.Time, loc *time.Location) []MonthlyRow {
	if loc == nil {
		loc = time.Local
	}
	months = ClampMonths(months)
	now = now.In(loc)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)

	rows := make([]MonthlyRow, months)
	for i := range rows {
		m := first.AddDate(0, i, 0)
		rows[i] = MonthlyRow{
			Month:    m.Format("Jan 2006"),
			Year:     m.Year(),
			MonthNum: int(m.Month()),
		}
	}

	firstKey := monthKey(first)
	for _, p := range payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		paid := p.PaidAt()
		if !paid.Valid() {
			continue
		}
		i := monthKey(paid.In(loc)) - firstKey
		if i < 0 || i >= months {
			continue
		}
		rows[i].Revenue += p.Amount.Float()
		rows[i].Commission += p.Commission.Float()
		rows[i].Orders++
	}

	for i := range rows {
		if rows[i].Orders > 0 {
			rows[i].AvgOrderValue = rows[i].Revenue / float64(rows[i].Orders)
		}
	}
	return rows
}

func monthKey(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
