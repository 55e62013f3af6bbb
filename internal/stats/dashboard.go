// internal/stats/dashboard.go
package stats

import (
	"math"
	"sort"
	"time"

	"helper-admin.kz/internal/models"
)

// Snapshot - полные выборки таблиц, по которым считается статистика.
type Snapshot struct {
	Users      []models.User
	Masters    []models.Master
	Orders     []models.Order
	Payments   []models.Payment
	Categories []models.Category
}

type DashboardStats struct {
	TotalUsers       int            `json:"total_users"`
	TotalMasters     int            `json:"total_masters"`
	ActiveMasters    int            `json:"active_masters"`
	VerifiedMasters  int            `json:"verified_masters"`
	TotalOrders      int            `json:"total_orders"`
	ActiveOrders     int            `json:"active_orders"`
	CompletedOrders  int            `json:"completed_orders"`
	CancelledOrders  int            `json:"cancelled_orders"`
	OrdersByStatus   map[string]int `json:"orders_by_status"`
	TotalRevenue     float64        `json:"total_revenue"`
	TotalCommission  float64        `json:"total_commission"`
	MonthRevenue     float64        `json:"month_revenue"`
	TodayRevenue     float64        `json:"today_revenue"`
	AvgOrderValue    float64        `json:"avg_order_value"`
	AvgMasterRating  float64        `json:"avg_master_rating"`
	TotalCategories  int            `json:"total_categories"`
	ActiveCategories int            `json:"active_categories"`
	CategoryMasters  int            `json:"category_masters"`
}

// ComputeDashboard считает показатели главной страницы. Выручка учитывает только завершённые платежи;
// «сегодня» и «этот месяц» берутся в часовом поясе loc.
func ComputeDashboard(s Snapshot, now time.Time, loc *time.Location) DashboardStats {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	st := DashboardStats{
		TotalUsers:      len(s.Users),
		TotalMasters:    len(s.Masters),
		TotalOrders:     len(s.Orders),
		TotalCategories: len(s.Categories),
		OrdersByStatus:  make(map[string]int),
	}

	for _, o := range s.Orders {
		st.OrdersByStatus[string(o.Status)]++
		switch {
		case o.Status.IsActive():
			st.ActiveOrders++
		case o.Status == models.OrderStatusCompleted:
			st.CompletedOrders++
		case o.Status == models.OrderStatusCancelled:
			st.CancelledOrders++
		}
	}

	for _, p := range s.Payments {
		if p.Status != models.PaymentStatusCompleted {
			continue
		}
		amount := p.Amount.Float()
		st.TotalRevenue += amount
		st.TotalCommission += p.Commission.Float()

		paid := p.PaidAt()
		if !paid.Valid() {
			continue
		}
		at := paid.In(loc)
		if at.Year() == now.Year() && at.Month() == now.Month() {
			st.MonthRevenue += amount
			if at.Day() == now.Day() {
				st.TodayRevenue += amount
			}
		}
	}

	if st.TotalOrders > 0 {
		st.AvgOrderValue = st.TotalRevenue / float64(st.TotalOrders)
	}

	var ratingSum float64
	for _, m := range s.Masters {
		ratingSum += m.Rating.Float()
		if m.Status == models.MasterStatusActive {
			st.ActiveMasters++
		}
		if m.IsVerified.Bool() {
			st.VerifiedMasters++
		}
	}
	if len(s.Masters) > 0 {
		st.AvgMasterRating = round1(ratingSum / float64(len(s.Masters)))
	}

	var categoryMasters float64
	for _, c := range s.Categories {
		categoryMasters += c.TotalMasters.Float()
		if c.IsActive.Bool() {
			st.ActiveCategories++
		}
	}
	st.CategoryMasters = int(math.Round(categoryMasters))

	return st
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type MasterEarnings struct {
	ID              int64   `json:"id"`
	FullName        string  `json:"full_name"`
	Rating          float64 `json:"rating"`
	CompletedOrders int     `json:"completed_orders"`
	TotalEarnings   float64 `json:"total_earnings"`
}

// TopMasters - n мастеров с наибольшим заработком.
func TopMasters(masters []models.Master, n int) []MasterEarnings {
	out := make([]MasterEarnings, 0, len(masters))
	for _, m := range masters {
		out = append(out, MasterEarnings{
			ID:              m.ID,
			FullName:        m.FullName,
			Rating:          m.Rating.Float(),
			CompletedOrders: int(m.CompletedOrders.Float()),
			TotalEarnings:   m.TotalEarnings.Float(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalEarnings > out[j].TotalEarnings
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type CategoryStat struct {
	CategoryID   int64  `json:"category_id"`
	Name         string `json:"name"`
	Orders       int    `json:"orders"`
	ActiveOrders int    `json:"active_orders"`
	Masters      int    `json:"masters"`
}

// CategoryBreakdown раскладывает заказы по категориям в порядке списка категорий.
func CategoryBreakdown(categories []models.Category, orders []models.Order) []CategoryStat {
	out := make([]CategoryStat, 0, len(categories))
	index := make(map[int64]int, len(categories))
	for _, c := range categories {
		index[c.ID] = len(out)
		out = append(out, CategoryStat{
			CategoryID: c.ID,
			Name:       c.NameRu,
			Masters:    int(c.TotalMasters.Float()),
		})
	}
	for _, o := range orders {
		i, ok := index[o.CategoryID]
		if !ok {
			continue
		}
		out[i].Orders++
		if o.Status.IsActive() {
			out[i].ActiveOrders++
		}
	}
	return out
}
