package stats

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"helper-admin.kz/internal/backend"
	"helper-admin.kz/internal/models"
)

var almaty = time.FixedZone("ALMT", 5*60*60)

func payment(amount any, status string, createdAt string) backend.Row {
	r := backend.Row{"amount": amount, "status": status, "commission": 0}
	if createdAt != "" {
		r["created_at"] = createdAt
	}
	return r
}

func newAggregator(t *testing.T) (*Aggregator, *backend.Memory) {
	t.Helper()
	hub := backend.NewHub()
	mem := backend.NewMemory(hub)
	return NewAggregator(backend.New(mem, hub), almaty, 0, nil), mem
}

func TestDashboardPendingPaymentDoesNotCount(t *testing.T) {
	agg, mem := newAggregator(t)
	mem.Seed("payments",
		payment(100000, "completed", "2025-06-10T09:00:00+05:00"),
		payment(50000, "pending", ""),
	)
	mem.Seed("orders",
		backend.Row{"status": "completed"},
		backend.Row{"status": "new"},
	)

	now := time.Date(2025, 6, 20, 12, 0, 0, 0, almaty)
	st, err := agg.Dashboard(context.Background(), now)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if st.TotalRevenue != 100000 {
		t.Errorf("TotalRevenue = %v, want 100000", st.TotalRevenue)
	}
	if st.CompletedOrders != 1 {
		t.Errorf("CompletedOrders = %d, want 1", st.CompletedOrders)
	}
	if st.AvgOrderValue != 50000 {
		t.Errorf("AvgOrderValue = %v, want 50000", st.AvgOrderValue)
	}
	if st.MonthRevenue != 100000 || st.TodayRevenue != 0 {
		t.Errorf("MonthRevenue = %v, TodayRevenue = %v", st.MonthRevenue, st.TodayRevenue)
	}
}

func TestDashboardEmptyBackendIsAllZero(t *testing.T) {
	agg, _ := newAggregator(t)
	st, err := agg.Dashboard(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if st.TotalUsers != 0 || st.TotalOrders != 0 || st.TotalRevenue != 0 || st.AvgOrderValue != 0 || st.AvgMasterRating != 0 {
		t.Errorf("ожидались нулевые показатели, got %+v", st)
	}
}

func TestDashboardNotConfiguredIsAllZero(t *testing.T) {
	agg := NewAggregator(nil, almaty, 0, nil)
	st, err := agg.Dashboard(context.Background(), time.Now())
	if err != nil || st == nil || st.TotalRevenue != 0 {
		t.Fatalf("Dashboard = %+v, %v", st, err)
	}
	rows, err := agg.MonthlyRevenue(context.Background(), 0, time.Now())
	if err != nil || len(rows) != DefaultMonths {
		t.Errorf("MonthlyRevenue = %d строк, %v", len(rows), err)
	}
}

func TestDashboardFailComplete(t *testing.T) {
	for _, table := range []string{"users", "masters", "orders", "payments", "categories"} {
		t.Run(table, func(t *testing.T) {
			agg, mem := newAggregator(t)
			mem.Seed("users", backend.Row{"full_name": "a"})
			mem.Seed("payments", payment(10, "completed", "2025-01-01"))
			boom := errors.New("timeout")
			mem.FailTable(table, boom)

			st, err := agg.Dashboard(context.Background(), time.Now())
			if st != nil {
				t.Errorf("при ошибке %s ожидался nil, got %+v", table, st)
			}
			if !errors.Is(err, boom) {
				t.Errorf("err = %v, want %v", err, boom)
			}
			if ov, err := agg.Overview(context.Background(), time.Now()); ov != nil || err == nil {
				t.Errorf("Overview = %+v, %v", ov, err)
			}
		})
	}
}

func TestMonthlyFailComplete(t *testing.T) {
	agg, mem := newAggregator(t)
	mem.FailTable("payments", errors.New("boom"))
	rows, err := agg.MonthlyRevenue(context.Background(), 6, time.Now())
	if err == nil || rows != nil {
		t.Errorf("MonthlyRevenue = %v, %v; want nil и ошибку", rows, err)
	}
}

func TestComputeDashboardRevenueProperty(t *testing.T) {
	payments := []models.Payment{
		{Amount: 100, Commission: 10, Status: models.PaymentStatusCompleted},
		{Amount: 250.5, Commission: 25, Status: models.PaymentStatusCompleted},
		{Amount: 999, Status: models.PaymentStatusRefunded},
		{Amount: 0, Status: models.PaymentStatusCompleted},
	}
	st := ComputeDashboard(Snapshot{Payments: payments}, time.Now(), almaty)

	var want float64
	for _, p := range payments {
		if p.Status == models.PaymentStatusCompleted {
			want += p.Amount.Float()
		}
	}
	if st.TotalRevenue != want {
		t.Errorf("TotalRevenue = %v, want %v", st.TotalRevenue, want)
	}
	if st.TotalCommission != 35 {
		t.Errorf("TotalCommission = %v, want 35", st.TotalCommission)
	}
	if st.AvgOrderValue != 0 {
		t.Errorf("без заказов AvgOrderValue = %v, want 0", st.AvgOrderValue)
	}
}

func TestNonNumericAmountIsZero(t *testing.T) {
	agg, mem := newAggregator(t)
	mem.Seed("payments",
		payment("abc", "completed", "2025-01-01"),
		payment("1500.50", "completed", "2025-01-01"),
		payment(nil, "completed", "2025-01-01"),
		payment("NaN", "completed", "2025-01-01"),
		payment("Infinity", "completed", "2025-01-01"),
		payment("-Inf", "completed", "2025-01-01"),
	)
	st, err := agg.Dashboard(context.Background(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalRevenue != 1500.50 {
		t.Errorf("TotalRevenue = %v, want 1500.50", st.TotalRevenue)
	}
	if math.IsNaN(st.AvgOrderValue) || math.IsInf(st.AvgOrderValue, 0) {
		t.Errorf("AvgOrderValue = %v, want конечное число", st.AvgOrderValue)
	}
	if _, err := json.Marshal(st); err != nil {
		t.Errorf("статистика не сериализуется: %v", err)
	}
}

func TestOrderCountsAndRatings(t *testing.T) {
	orders := []models.Order{
		{Status: models.OrderStatusNew},
		{Status: models.OrderStatusAccepted},
		{Status: models.OrderStatusInProgress},
		{Status: models.OrderStatusPending},
		{Status: models.OrderStatusCompleted},
		{Status: models.OrderStatusCancelled},
	}
	masters := []models.Master{
		{Rating: 4.5, Status: models.MasterStatusActive, IsVerified: true},
		{Rating: 4.0, Status: models.MasterStatusBlocked},
		{Rating: 0, Status: models.MasterStatusActive},
	}
	categories := []models.Category{{TotalMasters: 2, IsActive: true}, {TotalMasters: 5}, {TotalMasters: 0, IsActive: true}}

	st := ComputeDashboard(Snapshot{Orders: orders, Masters: masters, Categories: categories}, time.Now(), almaty)

	if st.ActiveOrders != 3 {
		t.Errorf("ActiveOrders = %d, want 3 (pending не активный)", st.ActiveOrders)
	}
	if st.CompletedOrders != 1 || st.CancelledOrders != 1 {
		t.Errorf("Completed = %d, Cancelled = %d", st.CompletedOrders, st.CancelledOrders)
	}
	if st.OrdersByStatus["pending"] != 1 {
		t.Errorf("OrdersByStatus = %v", st.OrdersByStatus)
	}
	if st.AvgMasterRating != 2.8 {
		t.Errorf("AvgMasterRating = %v, want 2.8", st.AvgMasterRating)
	}
	if st.ActiveMasters != 2 || st.VerifiedMasters != 1 {
		t.Errorf("ActiveMasters = %d, VerifiedMasters = %d", st.ActiveMasters, st.VerifiedMasters)
	}
	if st.CategoryMasters != 7 {
		t.Errorf("CategoryMasters = %d, want 7", st.CategoryMasters)
	}
	if st.ActiveCategories != 2 {
		t.Errorf("ActiveCategories = %d, want 2", st.ActiveCategories)
	}
}

func TestTodayUsesCompletedAtFallback(t *testing.T) {
	now := time.Date(2025, 3, 15, 23, 30, 0, 0, almaty)
	payments := []models.Payment{
		{Amount: 700, Status: models.PaymentStatusCompleted, CompletedAt: models.Timestamp{Time: time.Date(2025, 3, 15, 19, 30, 0, 0, time.UTC)}},
		{Amount: 300, Status: models.PaymentStatusCompleted, CreatedAt: models.Timestamp{Time: time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)}},
	}
	st := ComputeDashboard(Snapshot{Payments: payments}, now, almaty)
	// 19:30 UTC 15-го - это уже 16-е по Алматы; 20:00 UTC 14-го - 15-е.
	if st.TodayRevenue != 300 {
		t.Errorf("TodayRevenue = %v, want 300", st.TodayRevenue)
	}
	if st.MonthRevenue != 1000 {
		t.Errorf("MonthRevenue = %v, want 1000", st.MonthRevenue)
	}
}

func TestBucketMonthly(t *testing.T) {
	now := time.Date(2025, 2, 10, 12, 0, 0, 0, almaty)
	at := func(y int, m time.Month, d int) models.Timestamp {
		return models.Timestamp{Time: time.Date(y, m, d, 12, 0, 0, 0, almaty)}
	}
	payments := []models.Payment{
		{Amount: 100, Commission: 10, Status: models.PaymentStatusCompleted, CreatedAt: at(2025, 2, 1)},
		{Amount: 300, Commission: 30, Status: models.PaymentStatusCompleted, CreatedAt: at(2025, 2, 9)},
		{Amount: 50, Status: models.PaymentStatusCompleted, CreatedAt: at(2024, 12, 31)},
		{Amount: 70, Status: models.PaymentStatusCompleted, CompletedAt: at(2024, 9, 1)},
		{Amount: 1000, Status: models.PaymentStatusCompleted, CreatedAt: at(2024, 8, 31)},
		{Amount: 5, Status: models.PaymentStatusCompleted},
		{Amount: 400, Status: models.PaymentStatusFailed, CreatedAt: at(2025, 2, 1)},
	}

	rows := BucketMonthly(payments, 6, now, almaty)
	if len(rows) != 6 {
		t.Fatalf("len = %d, want 6", len(rows))
	}
	wantLabels := []string{"Sep 2024", "Oct 2024", "Nov 2024", "Dec 2024", "Jan 2025", "Feb 2025"}
	for i, l := range wantLabels {
		if rows[i].Month != l {
			t.Errorf("rows[%d].Month = %q, want %q", i, rows[i].Month, l)
		}
	}
	if rows[5].Revenue != 400 || rows[5].Orders != 2 || rows[5].AvgOrderValue != 200 || rows[5].Commission != 40 {
		t.Errorf("Feb 2025 = %+v", rows[5])
	}
	if rows[3].Revenue != 50 || rows[0].Revenue != 70 {
		t.Errorf("Dec = %v, Sep = %v", rows[3].Revenue, rows[0].Revenue)
	}
	if rows[4].Orders != 0 || rows[4].AvgOrderValue != 0 {
		t.Errorf("пустой месяц = %+v", rows[4])
	}

	again := BucketMonthly(payments, 6, now, almaty)
	for i := range rows {
		if rows[i] != again[i] {
			t.Errorf("повторный расчёт отличается: %+v vs %+v", rows[i], again[i])
		}
	}
}

func TestBucketMonthlyCoversTotalRevenue(t *testing.T) {
	now := time.Date(2025, 12, 5, 0, 0, 0, 0, almaty)
	var payments []models.Payment
	for m := 1; m <= 12; m++ {
		payments = append(payments, models.Payment{
			Amount:    models.Numeric(m * 1000),
			Status:    models.PaymentStatusCompleted,
			CreatedAt: models.Timestamp{Time: time.Date(2025, time.Month(m), 3, 10, 0, 0, 0, almaty)},
		})
	}
	st := ComputeDashboard(Snapshot{Payments: payments}, now, almaty)

	var sum float64
	for _, r := range BucketMonthly(payments, 12, now, almaty) {
		sum += r.Revenue
	}
	if math.Abs(sum-st.TotalRevenue) > 1e-9 {
		t.Errorf("сумма по месяцам %v != общая выручка %v", sum, st.TotalRevenue)
	}
}

func TestClampMonths(t *testing.T) {
	tests := []struct{ in, want int }{{0, 6}, {-3, 6}, {1, 1}, {12, 12}, {100, 36}}
	for _, tt := range tests {
		if got := ClampMonths(tt.in); got != tt.want {
			t.Errorf("ClampMonths(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTopMastersAndCategoryBreakdown(t *testing.T) {
	masters := []models.Master{
		{ID: 1, FullName: "a", TotalEarnings: 100},
		{ID: 2, FullName: "b", TotalEarnings: 300},
		{ID: 3, FullName: "c", TotalEarnings: 200},
	}
	top := TopMasters(masters, 2)
	if len(top) != 2 || top[0].ID != 2 || top[1].ID != 3 {
		t.Errorf("TopMasters = %+v", top)
	}

	categories := []models.Category{{ID: 1, NameRu: "Электрика", TotalMasters: 2}, {ID: 2, NameRu: "Уборка"}}
	orders := []models.Order{
		{CategoryID: 1, Status: models.OrderStatusNew},
		{CategoryID: 1, Status: models.OrderStatusCompleted},
		{CategoryID: 2, Status: models.OrderStatusInProgress},
		{CategoryID: 9, Status: models.OrderStatusNew},
	}
	got := CategoryBreakdown(categories, orders)
	if got[0].Orders != 2 || got[0].ActiveOrders != 1 || got[0].Masters != 2 {
		t.Errorf("Электрика = %+v", got[0])
	}
	if got[1].Orders != 1 || got[1].ActiveOrders != 1 {
		t.Errorf("Уборка = %+v", got[1])
	}
}

// stallingExecutor отвечает ошибкой на одну таблицу, остальные запросы ждут отмены контекста.
type stallingExecutor struct {
	failTable string
	err       error
}

func (e stallingExecutor) Execute(ctx context.Context, q *backend.Query) ([]backend.Row, error) {
	if q.Table == e.failTable {
		return nil, e.err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSnapshotCancelsSiblingsOnFailure(t *testing.T) {
	boom := errors.New("payments недоступны")
	client := backend.New(stallingExecutor{failTable: "payments", err: boom}, nil)
	agg := NewAggregator(client, almaty, 6, nil)

	done := make(chan error, 1)
	go func() {
		_, err := agg.Snapshot(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("остальные выборки не отменены после первой ошибки")
	}
}
